package wellknown

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	_ "embed"

	"fwbuilder-report/internal/model"
)

//go:embed well_known_ports.csv
var wellKnownPortsData string

// portNames maps "port/protocol" to the registered service name.
var portNames map[string]string

func init() {
	portNames = make(map[string]string)
	reader := csv.NewReader(bytes.NewBufferString(wellKnownPortsData))
	reader.TrimLeadingSpace = true
	// Skip header
	if _, err := reader.Read(); err != nil {
		log.Fatalf("Failed to read header from embedded well_known_ports.csv: %v", err)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to parse embedded well_known_ports.csv: %v", err)
		}
		if len(record) < 3 {
			continue
		}

		port, err := strconv.Atoi(record[0])
		if err != nil {
			continue
		}

		register(strings.TrimSpace(record[1]), model.TCP, port)
		register(strings.TrimSpace(record[2]), model.UDP, port)
	}
}

func register(name string, protocol model.Protocol, port int) {
	if name == "" || name == "N/A" {
		return
	}
	portNames[portKey(port, protocol)] = name
}

func portKey(port int, protocol model.Protocol) string {
	return fmt.Sprintf("%d/%s", port, protocol)
}

// PortName returns the well-known service name registered for port/protocol.
func PortName(port int, protocol model.Protocol) (string, bool) {
	name, ok := portNames[portKey(port, protocol)]
	return name, ok
}

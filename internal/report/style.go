package report

import "html"

func esc(s string) string {
	return html.EscapeString(s)
}

const stylesheet = `<style>
body {
    font-family: sans-serif;
}
dt:target {
    font-weight: bold;
}
dt:target + dd {
    color: #555753;
}
dd {
    padding-bottom: 15px;
}
a:link, a:visited {
    color: #555753;
    text-decoration: none;
}
a:hover {
    text-decoration: underline;
}
span.rule-accept {
    color: #73d216;
}
span.rule-deny, span.rule-reject, span.rule-discard {
    color: #cc0000;
}
span.rule-branch {
    color: #3465a4;
}
li.rule-branch {
    background-color: #eeeeec;
}
span.rule-log {
    color: #75507b;
}
li.rule-disabled {
    color: #888a85;
    text-decoration: line-through;
}
li {
    list-style: #d3d7cf;
    padding: 3px;
    margin: 3px;
}
ol {
    list-style-type: none;
    counter-reset: ol-counter;
}
ol > li:before {
    content: counter(ol-counter) ' ';
    counter-increment: ol-counter;
    color: #888a85;
}
</style>
`

package probe

import (
	"encoding/json"
	"strings"

	"github.com/chromedp/cdproto/runtime"
)

// consoleListener turns console calls and uncaught exceptions into lines.
// chromedp calls it synchronously from its event loop, so it must not block.
func consoleListener(emit func(string)) func(ev interface{}) {
	return func(ev interface{}) {
		switch ev := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			emit("PAGE LOG: " + consoleText(ev.Args))
		case *runtime.EventExceptionThrown:
			emit("PAGE ERROR: " + exceptionMessage(ev.ExceptionDetails))
		}
	}
}

// consoleText renders console arguments the way devtools prints them on one
// line: strings unquoted, everything else by value or description.
func consoleText(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			continue
		}
		parts = append(parts, remoteObjectText(arg))
	}
	return strings.Join(parts, " ")
}

func remoteObjectText(arg *runtime.RemoteObject) string {
	if arg.Type == runtime.TypeString && len(arg.Value) > 0 {
		var s string
		if err := json.Unmarshal([]byte(arg.Value), &s); err == nil {
			return s
		}
	}
	switch {
	case arg.UnserializableValue != "":
		return string(arg.UnserializableValue)
	case arg.Description != "":
		return arg.Description
	case len(arg.Value) > 0:
		return string(arg.Value)
	}
	return string(arg.Type)
}

// exceptionMessage returns the message of the thrown value: the first line
// of its description with the "ClassName: " prefix and the stack removed.
func exceptionMessage(details *runtime.ExceptionDetails) string {
	if details == nil {
		return ""
	}
	if ex := details.Exception; ex != nil {
		if msg := remoteObjectText(ex); msg != "" && msg != string(ex.Type) {
			line, _, _ := strings.Cut(msg, "\n")
			if ex.ClassName != "" {
				line = strings.TrimPrefix(line, ex.ClassName+": ")
			}
			return line
		}
	}
	return details.Text
}

// textXPath selects the innermost elements whose normalized text contains
// text, so a click lands on the label rather than an ancestor container.
func textXPath(text string) string {
	lit := xpathLiteral(text)
	return `//*[contains(normalize-space(.), ` + lit + `)][not(*[contains(normalize-space(.), ` + lit + `)])]`
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if p != "" {
			quoted = append(quoted, `"`+p+`"`)
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

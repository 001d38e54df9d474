package probe

import (
	"testing"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/stretchr/testify/assert"
)

func TestConsoleText(t *testing.T) {
	args := []*runtime.RemoteObject{
		{Type: runtime.TypeString, Value: []byte(`"menu loaded"`)},
		{Type: runtime.TypeNumber, Value: []byte(`42`), Description: "42"},
		{Type: runtime.TypeNumber, UnserializableValue: "NaN", Description: "NaN"},
		{Type: runtime.TypeObject, ClassName: "Array", Description: "Array(3)"},
		{Type: runtime.TypeUndefined},
		nil,
	}

	assert.Equal(t, "menu loaded 42 NaN Array(3) undefined", consoleText(args))
	assert.Equal(t, "", consoleText(nil))
}

func TestExceptionMessage(t *testing.T) {
	thrown := &runtime.ExceptionDetails{
		Text: "Uncaught",
		Exception: &runtime.RemoteObject{
			Type:        runtime.TypeObject,
			ClassName:   "TypeError",
			Description: "TypeError: items.map is not a function\n    at App (app.js:1:200)",
		},
	}
	assert.Equal(t, "items.map is not a function", exceptionMessage(thrown))

	// A class name that is not the description prefix is left alone.
	custom := &runtime.ExceptionDetails{
		Exception: &runtime.RemoteObject{
			Type:        runtime.TypeObject,
			ClassName:   "MenuError",
			Description: "Error: menu.json missing",
		},
	}
	assert.Equal(t, "Error: menu.json missing", exceptionMessage(custom))

	str := &runtime.ExceptionDetails{
		Text:      "Uncaught",
		Exception: &runtime.RemoteObject{Type: runtime.TypeString, Value: []byte(`"oops"`)},
	}
	assert.Equal(t, "oops", exceptionMessage(str))

	assert.Equal(t, "Uncaught SyntaxError", exceptionMessage(&runtime.ExceptionDetails{Text: "Uncaught SyntaxError"}))
	assert.Equal(t, "", exceptionMessage(nil))
}

func TestConsoleListenerPreservesOrder(t *testing.T) {
	var lines []string
	listen := consoleListener(func(line string) { lines = append(lines, line) })

	listen(&runtime.EventConsoleAPICalled{Type: runtime.APITypeLog, Args: []*runtime.RemoteObject{
		{Type: runtime.TypeString, Value: []byte(`"fetching menu.json"`)},
	}})
	listen(&runtime.EventExceptionThrown{ExceptionDetails: &runtime.ExceptionDetails{
		Exception: &runtime.RemoteObject{Type: runtime.TypeObject, ClassName: "SyntaxError", Description: "SyntaxError: bad json\n    at JSON.parse (<anonymous>)"},
	}})
	listen(&page.EventLoadEventFired{})
	listen(&runtime.EventConsoleAPICalled{Type: runtime.APITypeWarning, Args: []*runtime.RemoteObject{
		{Type: runtime.TypeString, Value: []byte(`"retrying"`)},
	}})

	assert.Equal(t, []string{
		"PAGE LOG: fetching menu.json",
		"PAGE ERROR: bad json",
		"PAGE LOG: retrying",
	}, lines)
}

func TestXPathLiteral(t *testing.T) {
	assert.Equal(t, `"Salads"`, xpathLiteral("Salads"))
	assert.Equal(t, `'Chef "Special"'`, xpathLiteral(`Chef "Special"`))
	assert.Equal(t, `concat("Mom's ", '"', "best", '"')`, xpathLiteral(`Mom's "best"`))
}

func TestTextXPath(t *testing.T) {
	assert.Equal(t,
		`//*[contains(normalize-space(.), "Salads")][not(*[contains(normalize-space(.), "Salads")])]`,
		textXPath("Salads"))
}

func TestIdleWatcherFollowsFirstLoader(t *testing.T) {
	w := newIdleWatcher()

	w.handle(&page.EventLifecycleEvent{Name: "networkIdle", LoaderID: cdp.LoaderID("blank")})
	w.handle(&page.EventLifecycleEvent{Name: "init", LoaderID: cdp.LoaderID("index")})
	w.handle(&page.EventLifecycleEvent{Name: "init", LoaderID: cdp.LoaderID("iframe")})
	w.handle(&page.EventLifecycleEvent{Name: "networkIdle", LoaderID: cdp.LoaderID("iframe")})

	select {
	case <-w.idle:
		t.Fatal("idle fired for the wrong document")
	default:
	}

	w.handle(&page.EventLifecycleEvent{Name: "networkIdle", LoaderID: cdp.LoaderID("index")})
	w.handle(&page.EventLifecycleEvent{Name: "networkIdle", LoaderID: cdp.LoaderID("index")})

	select {
	case <-w.idle:
	default:
		t.Fatal("idle did not fire")
	}
}

func TestJSString(t *testing.T) {
	assert.Equal(t, `".bg-white.rounded-2xl"`, jsString(".bg-white.rounded-2xl"))
	assert.Equal(t, `"a[data-x=\"1\"]"`, jsString(`a[data-x="1"]`))
}

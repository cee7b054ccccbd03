package view

import (
	"reflect"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"sheetledger/internal/core"
	appweb "sheetledger/web"
)

func entry(name, amount string, typ core.EntryType) core.Entry {
	return core.Entry{Name: name, Amount: decimal.RequireFromString(amount), Type: typ}
}

func TestRenderEmpty(t *testing.T) {
	for _, f := range core.Filters() {
		v := Render(nil, f)
		if v.State != StateEmpty {
			t.Fatalf("filter %s: state=%s", f, v.State)
		}
		if v.Message != MessageEmpty {
			t.Fatalf("filter %s: message=%q", f, v.Message)
		}
		if len(v.Items) != 0 {
			t.Fatalf("filter %s: items=%d", f, len(v.Items))
		}
	}
}

func TestRenderFilterSpecificEmpty(t *testing.T) {
	rows := []core.Entry{entry("Salary", "1000", core.Income)}
	v := Render(rows, core.FilterExpense)
	if v.State != StateEmpty {
		t.Fatalf("state=%s", v.State)
	}
	if v.Message != "No expense entries found." {
		t.Fatalf("message=%q", v.Message)
	}

	rows = []core.Entry{entry("Coffee", "3.5", core.Expense)}
	if got := Render(rows, core.FilterIncome).Message; got != "No income entries found." {
		t.Fatalf("message=%q", got)
	}
}

func TestRenderAllKeepsOrder(t *testing.T) {
	rows := []core.Entry{
		entry("Coffee", "3.5", core.Expense),
		entry("Salary", "1200", core.Income),
		entry("Rent", "700.456", core.Expense),
	}
	v := Render(rows, core.FilterAll)
	if v.State != StateList {
		t.Fatalf("state=%s", v.State)
	}
	if len(v.Items) != len(rows) {
		t.Fatalf("items=%d want %d", len(v.Items), len(rows))
	}
	want := []string{"- ₹3.50", "+ ₹1200.00", "- ₹700.46"}
	for i, it := range v.Items {
		if it.Name != rows[i].Name {
			t.Fatalf("item %d name=%q", i, it.Name)
		}
		if it.Display != want[i] {
			t.Fatalf("item %d display=%q want %q", i, it.Display, want[i])
		}
	}
}

func TestRenderFilters(t *testing.T) {
	rows := []core.Entry{
		entry("Coffee", "3.5", core.Expense),
		entry("Salary", "1200", core.Income),
		entry("Bread", "2", core.Expense),
	}
	v := Render(rows, core.FilterExpense)
	if len(v.Items) != 2 || v.Items[0].Name != "Coffee" || v.Items[1].Name != "Bread" {
		t.Fatalf("unexpected items: %+v", v.Items)
	}
	v = Render(rows, core.FilterIncome)
	if len(v.Items) != 1 || v.Items[0].Sign != "+" {
		t.Fatalf("unexpected items: %+v", v.Items)
	}
}

func TestRenderIsPure(t *testing.T) {
	rows := []core.Entry{entry("Coffee", "3.5", core.Expense), entry("", "0", core.Income)}
	a := Render(rows, core.FilterAll)
	b := Render(rows, core.FilterAll)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("render not deterministic:\n%+v\n%+v", a, b)
	}
	if rows[1].Name != "" {
		t.Fatalf("input mutated")
	}
}

func TestNewItemUnknownName(t *testing.T) {
	it := NewItem(core.Entry{Amount: decimal.Zero, Type: core.Income})
	if it.Name != "Unknown" {
		t.Fatalf("name=%q", it.Name)
	}
	if it.Display != "+ ₹0.00" {
		t.Fatalf("display=%q", it.Display)
	}
}

func TestTabsExactlyOneActive(t *testing.T) {
	for _, f := range []core.Filter{core.FilterAll, core.FilterExpense, core.FilterIncome, core.Filter("bogus")} {
		active := 0
		for _, tab := range Tabs(f) {
			if tab.Active {
				active++
			}
		}
		if active != 1 {
			t.Fatalf("filter %q: %d active tabs", f, active)
		}
	}
	if tabs := Tabs(core.Filter("bogus")); !tabs[0].Active || tabs[0].Key != core.FilterAll {
		t.Fatalf("unknown filter should activate all: %+v", tabs)
	}
}

func TestMessageViews(t *testing.T) {
	cases := []struct {
		v     ListView
		state State
		msg   string
	}{
		{NotResolved(core.FilterAll), StateNotResolved, MessageNotResolved},
		{LoadError(core.FilterIncome), StateError, MessageLoadError},
		{Loading(core.FilterExpense), StateLoading, MessageLoading},
	}
	for _, c := range cases {
		if c.v.State != c.state || c.v.Message != c.msg {
			t.Fatalf("got %s %q, want %s %q", c.v.State, c.v.Message, c.state, c.msg)
		}
		if len(c.v.Tabs) != 3 {
			t.Fatalf("tabs missing on %s view", c.state)
		}
	}
}

func TestRenderHTML(t *testing.T) {
	r, err := NewRenderer(appweb.TemplatesFS)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	html, err := r.RenderHTML(Render([]core.Entry{entry("Coffee", "3.5", core.Expense)}, core.FilterAll))
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	for _, want := range []string{"Coffee", "- ₹3.50", `class="tab-btn active"`, `data-tab="all"`, "entry-amount expense"} {
		if !strings.Contains(html, want) {
			t.Fatalf("html missing %q:\n%s", want, html)
		}
	}
	if strings.Count(html, " active\"") != 1 {
		t.Fatalf("expected one active tab:\n%s", html)
	}

	html, err = r.RenderHTML(Render(nil, core.FilterAll))
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if !strings.Contains(html, MessageEmpty) {
		t.Fatalf("empty message missing:\n%s", html)
	}
}

func TestRenderHTMLEscapesNames(t *testing.T) {
	r, err := NewRenderer(appweb.TemplatesFS)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	html, err := r.RenderHTML(Render([]core.Entry{entry("<b>x</b>", "1", core.Expense)}, core.FilterAll))
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if strings.Contains(html, "<b>x</b>") {
		t.Fatalf("name not escaped:\n%s", html)
	}
}

func TestRendererNotLoaded(t *testing.T) {
	var r *Renderer
	if _, err := r.RenderHTML(ListView{}); err != ErrTemplatesNotLoaded {
		t.Fatalf("err=%v", err)
	}
}

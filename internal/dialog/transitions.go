package dialog

import (
	"context"
	"strconv"

	"github.com/lojasmm/lista/internal/catalog"
	"github.com/lojasmm/lista/internal/conversation"
	"github.com/lojasmm/lista/internal/render"
)

type inputKind int

const (
	inputOther  inputKind = iota
	inputStart            // start keyword while idle
	inputBack             // "0"
	inputClose            // "9" in the product view
	inputSelect           // positive integer in a menu
)

func (k inputKind) String() string {
	switch k {
	case inputStart:
		return "start"
	case inputBack:
		return "back"
	case inputClose:
		return "close"
	case inputSelect:
		return "select"
	default:
		return "other"
	}
}

type input struct {
	kind  inputKind
	index int // 1-based, only for inputSelect
}

// classify maps raw text to an input class for the given state. "9" is a
// control token only in the product view; in menus it is an item number.
func classify(state conversation.State, text string) input {
	if !state.Active() {
		return input{kind: inputStart}
	}
	if text == "0" {
		return input{kind: inputBack}
	}
	if state == conversation.StateProductView {
		if text == "9" {
			return input{kind: inputClose}
		}
		return input{kind: inputOther}
	}
	if n, err := strconv.Atoi(text); err == nil && n >= 1 {
		return input{kind: inputSelect, index: n}
	}
	return input{kind: inputOther}
}

type transitionKey struct {
	state conversation.State
	input inputKind
}

// transition mutates s (a working copy) and returns the replies. A returned
// error aborts the message and resets the user.
type transition func(ctx context.Context, s *conversation.Session, in input) ([]string, error)

func (e *Engine) transitions() map[transitionKey]transition {
	return map[transitionKey]transition{
		{conversation.StateNone, inputStart}: e.start,

		{conversation.StateBrandSelect, inputBack}:   e.cancel,
		{conversation.StateBrandSelect, inputSelect}: e.selectBrand,
		{conversation.StateBrandSelect, inputOther}:  reply(msgInvalidBrand),

		{conversation.StateCategorySelect, inputBack}:   e.backToBrands,
		{conversation.StateCategorySelect, inputSelect}: e.selectCategory,
		{conversation.StateCategorySelect, inputOther}:  reply(msgInvalidCategory),

		{conversation.StateProductView, inputBack}:  e.backToCategories,
		{conversation.StateProductView, inputClose}: e.closeSession,
		{conversation.StateProductView, inputOther}: reply(msgProductHint),
	}
}

// reply answers with a fixed text and leaves the session untouched.
func reply(text string) transition {
	return func(context.Context, *conversation.Session, input) ([]string, error) {
		return []string{text}, nil
	}
}

func (e *Engine) start(ctx context.Context, s *conversation.Session, _ input) ([]string, error) {
	brands, err := e.catalog.ListBrands(ctx)
	if err != nil {
		return nil, err
	}

	*s = conversation.Session{
		State:     conversation.StateBrandSelect,
		Selection: conversation.Selection{Brands: brands},
	}
	return []string{greeting(e.now()), brandMenu("", brands)}, nil
}

func (e *Engine) cancel(_ context.Context, s *conversation.Session, _ input) ([]string, error) {
	*s = conversation.Session{State: conversation.StateEnded}
	return []string{cancelled(e.keyword)}, nil
}

func (e *Engine) closeSession(_ context.Context, s *conversation.Session, _ input) ([]string, error) {
	*s = conversation.Session{State: conversation.StateEnded}
	return []string{closed(e.keyword)}, nil
}

func (e *Engine) selectBrand(ctx context.Context, s *conversation.Session, in input) ([]string, error) {
	brand, ok := pick(s.Selection.Brands, in.index)
	if !ok {
		return []string{msgInvalidBrand}, nil
	}

	rows, err := e.catalog.ListRows(ctx, brand)
	if err != nil {
		return nil, err
	}

	categories := catalog.Categories(rows)
	if len(categories) == 0 {
		*s = conversation.Session{State: conversation.StateEnded}
		return []string{msgNoCategories}, nil
	}

	s.State = conversation.StateCategorySelect
	s.Selection.Brand = brand
	s.Selection.Categories = categories
	return []string{categoryMenu(brand, categories)}, nil
}

func (e *Engine) backToBrands(_ context.Context, s *conversation.Session, _ input) ([]string, error) {
	s.State = conversation.StateBrandSelect
	s.Selection.Brand = ""
	s.Selection.Categories = nil
	s.Selection.Category = ""
	return []string{brandMenu(msgBrandPrompt, s.Selection.Brands)}, nil
}

func (e *Engine) selectCategory(ctx context.Context, s *conversation.Session, in input) ([]string, error) {
	category, ok := pick(s.Selection.Categories, in.index)
	if !ok {
		return []string{msgInvalidCategory}, nil
	}

	rows, err := e.catalog.ListRows(ctx, s.Selection.Brand)
	if err != nil {
		return nil, err
	}

	products := catalog.InCategory(rows, category)
	if len(products) == 0 {
		return []string{msgNoProducts}, nil
	}

	cards := make([]string, len(products))
	for i, p := range products {
		cards[i] = render.ProductCard(p.Name, p.Variant, render.Price(p.Price))
	}

	s.State = conversation.StateProductView
	s.Selection.Category = category
	return []string{productList(category, cards)}, nil
}

func (e *Engine) backToCategories(_ context.Context, s *conversation.Session, _ input) ([]string, error) {
	s.State = conversation.StateCategorySelect
	s.Selection.Category = ""
	return []string{categoryMenu(s.Selection.Brand, s.Selection.Categories)}, nil
}

// pick returns items[n-1] when n is a valid 1-based index.
func pick(items []string, n int) (string, bool) {
	if n < 1 || n > len(items) {
		return "", false
	}
	return items[n-1], true
}

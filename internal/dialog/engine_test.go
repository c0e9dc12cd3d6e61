package dialog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lojasmm/lista/internal/catalog"
	"github.com/lojasmm/lista/internal/conversation"
	"github.com/lojasmm/lista/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const user = "5511987654321"

type fakeCatalog struct {
	mu        sync.Mutex
	brands    []string
	rows      map[string][]catalog.Row
	brandsErr error
	rowsErr   error
	panicOn   string
	rowsCalls int
}

func (f *fakeCatalog) ListBrands(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.brandsErr != nil {
		return nil, f.brandsErr
	}
	return append([]string(nil), f.brands...), nil
}

func (f *fakeCatalog) ListRows(_ context.Context, brand string) ([]catalog.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rowsCalls++
	if brand == f.panicOn {
		panic("index out of range")
	}
	if f.rowsErr != nil {
		return nil, f.rowsErr
	}
	return append([]catalog.Row(nil), f.rows[brand]...), nil
}

func newTestEngine(gw *fakeCatalog) (*Engine, *conversation.MemoryStore) {
	store := conversation.NewMemoryStore()
	clock := func() time.Time { return time.Date(2024, time.July, 9, 10, 0, 0, 0, time.UTC) }
	return NewEngine(store, gw, session.NewManager(), "@lista", WithClock(clock)), store
}

func scenarioCatalog() *fakeCatalog {
	return &fakeCatalog{
		brands: []string{"A", "B"},
		rows: map[string][]catalog.Row{
			"A": {{Category: "X", Name: "P1", Price: "10000"}},
			"B": {
				{Category: "Camisas", Name: "Polo", Variant: "Azul", Price: "45.900"},
				{Category: "Camisas", Name: "Oxford", Price: "sin precio"},
				{Category: "Gorras", Name: "Snapback", Price: "12345abc"},
			},
		},
	}
}

// assertInvariants checks the selection fields against the state.
func assertInvariants(t *testing.T, s conversation.Session) {
	t.Helper()
	switch s.State {
	case conversation.StateNone, conversation.StateEnded:
		assert.Equal(t, conversation.Selection{}, s.Selection, "idle session must have no selection")
	case conversation.StateBrandSelect:
		assert.Empty(t, s.Selection.Brand)
		assert.Empty(t, s.Selection.Category)
	case conversation.StateCategorySelect:
		assert.NotEmpty(t, s.Selection.Brand)
		assert.Empty(t, s.Selection.Category)
	case conversation.StateProductView:
		assert.NotEmpty(t, s.Selection.Brand)
		assert.NotEmpty(t, s.Selection.Category)
	}
}

func TestEngine_Scenario(t *testing.T) {
	e, store := newTestEngine(scenarioCatalog())
	ctx := context.Background()

	replies := e.Handle(ctx, user, "@lista")
	require.Len(t, replies, 2)
	assert.Contains(t, replies[0], "09/07/2024")
	assert.Contains(t, replies[1], "1. A")
	assert.Contains(t, replies[1], "2. B")
	assert.Contains(t, replies[1], "0. Cancelar")
	assert.Equal(t, conversation.StateBrandSelect, store.Get(user).State)

	replies = e.Handle(ctx, user, "1")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "1. X")
	assert.Contains(t, replies[0], "*A*")
	assert.Contains(t, replies[0], "0. Volver a marcas")
	sess := store.Get(user)
	assert.Equal(t, conversation.StateCategorySelect, sess.State)
	assert.Equal(t, "A", sess.Selection.Brand)
	assertInvariants(t, sess)

	replies = e.Handle(ctx, user, "1")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "P1")
	assert.Contains(t, replies[0], "$ 10.000")
	assert.Contains(t, replies[0], "0. Volver\n9. Cerrar conversación")
	sess = store.Get(user)
	assert.Equal(t, conversation.StateProductView, sess.State)
	assert.Equal(t, "X", sess.Selection.Category)
	assertInvariants(t, sess)
}

func TestEngine_ProductCards(t *testing.T) {
	e, _ := newTestEngine(scenarioCatalog())
	ctx := context.Background()

	e.Handle(ctx, user, "@lista")
	e.Handle(ctx, user, "2")
	replies := e.Handle(ctx, user, "1")
	require.Len(t, replies, 1)
	want := "*Camisas disponibles:*\n\n" +
		"*Polo Azul*\n$ 45.900\n\n" +
		"*Oxford*\n\n\n" +
		"0. Volver\n9. Cerrar conversación"
	assert.Equal(t, want, replies[0])
}

func TestEngine_IgnoresIdleChatter(t *testing.T) {
	gw := scenarioCatalog()
	e, store := newTestEngine(gw)

	assert.Empty(t, e.Handle(context.Background(), user, "hola"))
	assert.Empty(t, e.Handle(context.Background(), user, "1"))
	assert.Equal(t, conversation.StateNone, store.Get(user).State)
	assert.Zero(t, gw.rowsCalls)
}

func TestEngine_StartTriggerCaseInsensitive(t *testing.T) {
	e, store := newTestEngine(scenarioCatalog())
	replies := e.Handle(context.Background(), user, "  Hola, me pasas la @LISTA? ")
	require.Len(t, replies, 2)
	assert.Equal(t, conversation.StateBrandSelect, store.Get(user).State)
}

func TestEngine_TriggerMidFlowIsInvalidOption(t *testing.T) {
	e, store := newTestEngine(scenarioCatalog())
	ctx := context.Background()
	e.Handle(ctx, user, "@lista")
	before := store.Get(user)

	replies := e.Handle(ctx, user, "@lista")
	assert.Equal(t, []string{msgInvalidBrand}, replies)
	assert.Equal(t, before, store.Get(user))
}

func TestEngine_InvalidSelections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup []string
		state conversation.State
		want  string
	}{
		{"brand select", []string{"@lista"}, conversation.StateBrandSelect, msgInvalidBrand},
		{"category select", []string{"@lista", "2"}, conversation.StateCategorySelect, msgInvalidCategory},
		{"product view", []string{"@lista", "2", "1"}, conversation.StateProductView, msgProductHint},
	}

	for _, tt := range tests {
		for _, text := range []string{"abc", "3", "-1", "", "1.5", "99999999999999999999", " 7 "} {
			t.Run(tt.name+"/"+text, func(t *testing.T) {
				e, store := newTestEngine(scenarioCatalog())
				for _, s := range tt.setup {
					e.Handle(ctx, user, s)
				}
				before := store.Get(user)
				require.Equal(t, tt.state, before.State)

				replies := e.Handle(ctx, user, text)
				assert.Equal(t, []string{tt.want}, replies)
				assert.Equal(t, before, store.Get(user))
			})
		}
	}
}

func TestEngine_NineIsAnItemInMenus(t *testing.T) {
	gw := &fakeCatalog{
		brands: []string{"1", "2", "3", "4", "5", "6", "7", "8", "Nueve"},
		rows:   map[string][]catalog.Row{"Nueve": {{Category: "Z", Name: "P"}}},
	}
	e, store := newTestEngine(gw)
	ctx := context.Background()

	e.Handle(ctx, user, "@lista")
	replies := e.Handle(ctx, user, "9")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "*Nueve*")
	assert.Equal(t, "Nueve", store.Get(user).Selection.Brand)
}

func TestEngine_CancelFromBrandSelect(t *testing.T) {
	e, store := newTestEngine(scenarioCatalog())
	ctx := context.Background()

	e.Handle(ctx, user, "@lista")
	replies := e.Handle(ctx, user, "0")
	assert.Equal(t, []string{"Conversación reiniciada. Escribe @lista para empezar de nuevo."}, replies)

	sess := store.Get(user)
	assert.Equal(t, conversation.StateEnded, sess.State)
	assertInvariants(t, sess)

	// ended users only react to the keyword again
	assert.Empty(t, e.Handle(ctx, user, "1"))
	assert.Len(t, e.Handle(ctx, user, "@lista"), 2)
}

func TestEngine_BackChainTerminates(t *testing.T) {
	e, store := newTestEngine(scenarioCatalog())
	ctx := context.Background()
	for _, s := range []string{"@lista", "1", "1"} {
		e.Handle(ctx, user, s)
	}
	require.Equal(t, conversation.StateProductView, store.Get(user).State)

	replies := e.Handle(ctx, user, "0")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "Selecciona una categoría para *A*:")
	sess := store.Get(user)
	assert.Equal(t, conversation.StateCategorySelect, sess.State)
	assertInvariants(t, sess)

	replies = e.Handle(ctx, user, "0")
	require.Len(t, replies, 1)
	assert.Equal(t, "¿Sobre qué marca quieres saber?\n1. A\n2. B\n\n0. Cancelar", replies[0])
	sess = store.Get(user)
	assert.Equal(t, conversation.StateBrandSelect, sess.State)
	assert.Equal(t, []string{"A", "B"}, sess.Selection.Brands)
	assertInvariants(t, sess)

	e.Handle(ctx, user, "0")
	sess = store.Get(user)
	assert.Equal(t, conversation.StateEnded, sess.State)
	assertInvariants(t, sess)

	// a fourth "0" is idle chatter
	assert.Empty(t, e.Handle(ctx, user, "0"))
}

func TestEngine_CloseFromProductView(t *testing.T) {
	e, store := newTestEngine(scenarioCatalog())
	ctx := context.Background()
	for _, s := range []string{"@lista", "1", "1"} {
		e.Handle(ctx, user, s)
	}

	replies := e.Handle(ctx, user, "9")
	assert.Equal(t, []string{"Conversación cerrada. Escribe @lista para empezar de nuevo."}, replies)
	sess := store.Get(user)
	assert.Equal(t, conversation.StateEnded, sess.State)
	assertInvariants(t, sess)
}

func TestEngine_NoCategoriesEndsSession(t *testing.T) {
	gw := &fakeCatalog{
		brands: []string{"Vacia"},
		rows:   map[string][]catalog.Row{"Vacia": {{Category: "  ", Name: "sin categoria"}}},
	}
	e, store := newTestEngine(gw)
	ctx := context.Background()

	e.Handle(ctx, user, "@lista")
	replies := e.Handle(ctx, user, "1")
	assert.Equal(t, []string{msgNoCategories}, replies)

	sess := store.Get(user)
	assert.Equal(t, conversation.StateEnded, sess.State)
	assertInvariants(t, sess)
}

func TestEngine_NoProductsStaysInCategories(t *testing.T) {
	gw := scenarioCatalog()
	e, store := newTestEngine(gw)
	ctx := context.Background()

	e.Handle(ctx, user, "@lista")
	e.Handle(ctx, user, "1")
	before := store.Get(user)

	// the sheet changed between the two reads
	gw.mu.Lock()
	gw.rows["A"] = []catalog.Row{{Category: "Otra", Name: "P9"}}
	gw.mu.Unlock()

	replies := e.Handle(ctx, user, "1")
	assert.Equal(t, []string{msgNoProducts}, replies)
	sess := store.Get(user)
	assert.Equal(t, before, sess)
	assertInvariants(t, sess)
}

func TestEngine_GatewayFailureDuringCategoryListing(t *testing.T) {
	gw := scenarioCatalog()
	e, store := newTestEngine(gw)
	ctx := context.Background()

	e.Handle(ctx, user, "@lista")
	gw.rowsErr = &catalog.FetchError{Op: "list_rows", Brand: "A", Type: catalog.ErrServer, Err: errors.New("503")}

	replies := e.Handle(ctx, user, "1")
	assert.Equal(t, []string{msgUnexpectedError}, replies)
	sess := store.Get(user)
	assert.Equal(t, conversation.StateEnded, sess.State)
	assert.Nil(t, sess.Selection.Categories)
	assertInvariants(t, sess)

	// a fresh start behaves like a first session
	gw.rowsErr = nil
	replies = e.Handle(ctx, user, "@lista")
	require.Len(t, replies, 2)
	assert.Contains(t, replies[1], "1. A")
}

func TestEngine_GatewayFailureOnStart(t *testing.T) {
	gw := scenarioCatalog()
	gw.brandsErr = errors.New("dial tcp: connection refused")
	e, store := newTestEngine(gw)

	replies := e.Handle(context.Background(), user, "@lista")
	assert.Equal(t, []string{msgUnexpectedError}, replies)
	assert.Equal(t, conversation.StateEnded, store.Get(user).State)
}

func TestEngine_PanicIsContained(t *testing.T) {
	gw := scenarioCatalog()
	gw.panicOn = "B"
	e, store := newTestEngine(gw)
	ctx := context.Background()

	e.Handle(ctx, user, "@lista")
	replies := e.Handle(ctx, user, "2")
	assert.Equal(t, []string{msgUnexpectedError}, replies)
	sess := store.Get(user)
	assert.Equal(t, conversation.StateEnded, sess.State)
	assertInvariants(t, sess)
}

func TestEngine_UsersAreIndependent(t *testing.T) {
	e, store := newTestEngine(scenarioCatalog())
	ctx := context.Background()

	e.Handle(ctx, "u1", "@lista")
	e.Handle(ctx, "u2", "@lista")
	e.Handle(ctx, "u1", "2")
	e.Handle(ctx, "u2", "0")

	assert.Equal(t, conversation.StateCategorySelect, store.Get("u1").State)
	assert.Equal(t, "B", store.Get("u1").Selection.Brand)
	assert.Equal(t, conversation.StateEnded, store.Get("u2").State)
}

func TestEngine_ConcurrentSameUser(t *testing.T) {
	e, store := newTestEngine(scenarioCatalog())
	ctx := context.Background()
	e.Handle(ctx, user, "@lista")

	var wg sync.WaitGroup
	for _, text := range []string{"1", "1", "0", "abc", "1"} {
		text := text
		wg.Add(1)
		go func() {
			defer wg.Done()
			replies := e.Handle(ctx, user, text)
			assert.LessOrEqual(t, len(replies), 1)
		}()
	}
	wg.Wait()
	assertInvariants(t, store.Get(user))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, inputStart, classify(conversation.StateEnded, "@lista").kind)
	assert.Equal(t, inputBack, classify(conversation.StateCategorySelect, "0").kind)
	assert.Equal(t, input{kind: inputSelect, index: 9}, classify(conversation.StateBrandSelect, "9"))
	assert.Equal(t, inputClose, classify(conversation.StateProductView, "9").kind)
	assert.Equal(t, inputOther, classify(conversation.StateProductView, "1").kind)
	assert.Equal(t, inputOther, classify(conversation.StateBrandSelect, "-3").kind)
	assert.Equal(t, inputOther, classify(conversation.StateBrandSelect, "uno").kind)
}

package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSection struct {
	id          string
	data        map[string]any
	validateErr error
	resets      int
}

func (f *fakeSection) ID() string                        { return f.id }
func (f *fakeSection) Title() string                     { return f.id }
func (f *fakeSection) Description() string               { return "" }
func (f *fakeSection) Data() map[string]any              { return f.data }
func (f *fakeSection) SetData(data map[string]any) error { f.data = data; return nil }
func (f *fakeSection) Validate() error                   { return f.validateErr }
func (f *fakeSection) Reset()                            { f.resets++; f.data = nil }

type fakeStore struct {
	sections map[string]map[string]any
	loadErr  error
	saveErr  error
	saves    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{sections: make(map[string]map[string]any)}
}

func (f *fakeStore) Load() error { return f.loadErr }
func (f *fakeStore) Save() error {
	f.saves++
	return f.saveErr
}
func (f *fakeStore) GetSection(id string) (map[string]any, error) { return f.sections[id], nil }
func (f *fakeStore) SetSection(id string, data map[string]any) error {
	f.sections[id] = data
	return nil
}
func (f *fakeStore) GetAll() (map[string]map[string]any, error) { return f.sections, nil }
func (f *fakeStore) SetAll(data map[string]map[string]any) error {
	f.sections = data
	return nil
}

func TestManager_Register(t *testing.T) {
	m := NewManager(newFakeStore())

	require.NoError(t, m.RegisterSection(&fakeSection{id: "b"}))
	require.NoError(t, m.RegisterSection(&fakeSection{id: "a"}))
	assert.Error(t, m.RegisterSection(&fakeSection{id: "a"}))

	ids := []string{}
	for _, s := range m.GetSections() {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []string{"b", "a"}, ids)

	_, ok := m.GetSection("missing")
	assert.False(t, ok)
}

func TestManager_LoadAll(t *testing.T) {
	store := newFakeStore()
	store.sections["a"] = map[string]any{"k": "v"}
	m := NewManager(store)
	a := &fakeSection{id: "a"}
	b := &fakeSection{id: "b", data: map[string]any{"keep": true}}
	require.NoError(t, m.RegisterSection(a))
	require.NoError(t, m.RegisterSection(b))

	require.NoError(t, m.LoadAll())
	assert.Equal(t, "v", a.data["k"])
	assert.Equal(t, true, b.data["keep"], "sections absent from the store keep their values")

	store.loadErr = errors.New("disk gone")
	assert.ErrorIs(t, m.LoadAll(), store.loadErr)
}

func TestManager_SaveAll(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store)
	a := &fakeSection{id: "a", data: map[string]any{"k": 1}}
	require.NoError(t, m.RegisterSection(a))

	require.NoError(t, m.SaveAll())
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 1, store.sections["a"]["k"])

	a.validateErr = errors.New("bad")
	err := m.SaveAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid a settings")
	assert.Equal(t, 1, store.saves, "nothing is written when validation fails")
}

func TestManager_ResetAll(t *testing.T) {
	m := NewManager(newFakeStore())
	a := &fakeSection{id: "a", data: map[string]any{"k": 1}}
	require.NoError(t, m.RegisterSection(a))

	m.ResetAll()
	assert.Equal(t, 1, a.resets)
	assert.Nil(t, a.data)
}

package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/docfill/internal/model"
	"github.com/sells-group/docfill/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func sampleResult() model.ExtractionResult {
	return model.ExtractionResult{
		File:        model.FileRef{Handle: "uploads/abc", Name: "award.pdf", MediaType: "application/pdf"},
		Category:    "Award",
		SubCategory: "Faculty",
		DataFields: map[string]string{
			"Award Name": "Best Teacher",
			"Date":       "15th March 2023",
		},
		AnalysisPayload: json.RawMessage(`{"success":true}`),
		AutoFillIntent:  true,
	}
}

// failingKV fails every call.
type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, fmt.Errorf("storage unavailable")
}
func (failingKV) Set(context.Context, string, string) error { return fmt.Errorf("quota exceeded") }
func (failingKV) Delete(context.Context, string) error      { return fmt.Errorf("quota exceeded") }
func (failingKV) DeletePrefix(context.Context, string) (int, error) {
	return 0, fmt.Errorf("quota exceeded")
}

type mockKV struct{ mock.Mock }

func (m *mockKV) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockKV) Set(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *mockKV) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockKV) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	args := m.Called(ctx, prefix)
	return args.Int(0), args.Error(1)
}

func TestStore_EmptyByDefault(t *testing.T) {
	s := New(store.NewMemory().Session("tab"))
	_, ok := s.Get()
	assert.False(t, ok)
	assert.False(t, s.HasData())
}

func TestStore_SetGet(t *testing.T) {
	s := New(store.NewMemory().Session("tab"))
	s.Set(context.Background(), sampleResult())

	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, sampleResult(), got)
}

func TestStore_SetOverwrites(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory().Session("tab")
	s := New(kv)

	s.Set(ctx, sampleResult())
	next := model.ExtractionResult{Category: "Patent", DataFields: map[string]string{"Title": "Widget"}}
	s.Set(ctx, next)

	got, _ := s.Get()
	assert.Equal(t, "Patent", got.Category)
	assert.Equal(t, map[string]string{"Title": "Widget"}, got.DataFields)

	name, ok, err := kv.Get(ctx, KeyFileName)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "", name, "previous file entry overwritten")
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := New(store.NewMemory().Session("tab"))
	s.Set(context.Background(), sampleResult())

	got, _ := s.Get()
	got.DataFields["Award Name"] = "mutated"

	again, _ := s.Get()
	assert.Equal(t, "Best Teacher", again.DataFields["Award Name"])
}

func TestStore_SetCopiesInput(t *testing.T) {
	s := New(store.NewMemory().Session("tab"))
	in := sampleResult()
	s.Set(context.Background(), in)
	in.DataFields["Award Name"] = "mutated"

	got, _ := s.Get()
	assert.Equal(t, "Best Teacher", got.DataFields["Award Name"])
}

func TestStore_RoundTripAcrossRestart(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemory()

	New(backend.Session("tab"), WithPersistAnalysis(true)).Set(ctx, sampleResult())

	// A new process: fresh Store over the same durable backend.
	restarted := New(backend.Session("tab"))
	require.True(t, restarted.Load(ctx))

	got, ok := restarted.Get()
	require.True(t, ok)
	want := sampleResult()
	assert.Equal(t, want.DataFields, got.DataFields)
	assert.Equal(t, want.Category, got.Category)
	assert.Equal(t, want.SubCategory, got.SubCategory)
	assert.Equal(t, want.File, got.File)
	assert.True(t, got.AutoFillIntent)
	assert.Nil(t, got.AnalysisPayload, "analysis payload is not rehydrated")
}

func TestStore_RoundTripSQLite(t *testing.T) {
	ctx := context.Background()
	backend, err := store.NewSQLite(t.TempDir() + "/session.db")
	require.NoError(t, err)
	defer backend.Close() //nolint:errcheck
	require.NoError(t, backend.Migrate(ctx))

	New(backend.Session("tab")).Set(ctx, sampleResult())

	restarted := New(backend.Session("tab"))
	require.True(t, restarted.Load(ctx))
	got, _ := restarted.Get()
	assert.Equal(t, sampleResult().DataFields, got.DataFields)

	other := New(backend.Session("another-tab"))
	assert.False(t, other.Load(ctx), "no cross-tab sharing")
}

func TestStore_LoadWithoutRecord(t *testing.T) {
	s := New(store.NewMemory().Session("tab"))
	assert.False(t, s.Load(context.Background()))
	assert.False(t, s.HasData())
}

func TestStore_LoadCorruptRecord(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory().Session("tab")
	require.NoError(t, kv.Set(ctx, KeyDataFields, "{not json"))

	s := New(kv)
	assert.False(t, s.Load(ctx))
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemory()
	kv := backend.Session("tab")
	require.NoError(t, kv.Set(ctx, "unrelated", "stays"))

	s := New(kv, WithPersistAnalysis(true))
	s.Set(ctx, sampleResult())
	s.Clear(ctx)

	assert.False(t, s.HasData())
	for _, key := range []string{KeyFileHandle, KeyFileName, KeyFileType, KeyDataFields,
		KeyCategory, KeySubCategory, KeyAutoFill, KeyLastAnalysis} {
		_, ok, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
	v, ok, _ := kv.Get(ctx, "unrelated")
	assert.True(t, ok)
	assert.Equal(t, "stays", v)

	assert.False(t, New(kv).Load(ctx), "nothing to rehydrate after clear")
}

func TestStore_PersistenceFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	s := New(failingKV{}, WithPersistAnalysis(true))

	assert.NotPanics(t, func() { s.Set(ctx, sampleResult()) })
	got, ok := s.Get()
	require.True(t, ok, "memory copy stays authoritative")
	assert.Equal(t, "Award", got.Category)

	assert.True(t, s.Load(ctx), "failed read keeps the in-memory state")

	s.Clear(ctx)
	assert.False(t, s.HasData())
}

func TestStore_PersistStopsAfterFirstFailure(t *testing.T) {
	ctx := context.Background()
	kv := new(mockKV)
	kv.On("Delete", ctx, KeyDataFields).Return(nil).Once()
	kv.On("Set", ctx, KeyFileHandle, "uploads/abc").Return(fmt.Errorf("quota exceeded")).Once()

	s := New(kv)
	s.Set(ctx, sampleResult())

	assert.True(t, s.HasData())
	kv.AssertExpectations(t)
	kv.AssertNumberOfCalls(t, "Set", 1)
}

// failOnKV wraps a KV and fails Set for one key.
type failOnKV struct {
	store.KV
	key string
}

func (f failOnKV) Set(ctx context.Context, key, value string) error {
	if key == f.key {
		return fmt.Errorf("quota exceeded")
	}
	return f.KV.Set(ctx, key, value)
}

func TestStore_PartialOverwriteLeavesNoRecord(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory().Session("tab")

	New(kv).Set(ctx, model.ExtractionResult{
		File:       model.FileRef{Name: "a.pdf"},
		Category:   "Award",
		DataFields: map[string]string{"Award Name": "A"},
	})

	s := New(failOnKV{KV: kv, key: KeyAutoFill})
	s.Set(ctx, model.ExtractionResult{
		File:       model.FileRef{Name: "b.pdf"},
		Category:   "Patent",
		DataFields: map[string]string{"Title": "B"},
	})
	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, "Patent", got.Category)

	fresh := New(kv)
	assert.False(t, fresh.Load(ctx), "a half-written overwrite must not rehydrate")
	assert.False(t, fresh.HasData())
}

func TestStore_PersistAbortsWhenInvalidateFails(t *testing.T) {
	ctx := context.Background()
	kv := new(mockKV)
	kv.On("Delete", ctx, KeyDataFields).Return(fmt.Errorf("storage unavailable")).Once()

	s := New(kv)
	s.Set(ctx, sampleResult())

	assert.True(t, s.HasData())
	kv.AssertExpectations(t)
	kv.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestStore_ClearUsesNamespace(t *testing.T) {
	ctx := context.Background()
	kv := new(mockKV)
	kv.On("DeletePrefix", ctx, Namespace).Return(7, nil).Once()

	New(kv).Clear(ctx)
	kv.AssertExpectations(t)
}

func TestStore_NilKV(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	s.Set(ctx, sampleResult())
	assert.True(t, s.HasData())
	assert.True(t, s.Load(ctx))
	s.Clear(ctx)
	assert.False(t, s.HasData())
}

func TestStore_LastAnalysis(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemory()

	s := New(backend.Session("tab"), WithPersistAnalysis(true))
	s.Set(ctx, sampleResult())

	payload, ok := s.LastAnalysis(ctx)
	require.True(t, ok)
	assert.JSONEq(t, `{"success":true}`, string(payload))

	restarted := New(backend.Session("tab"))
	restarted.Load(ctx)
	payload, ok = restarted.LastAnalysis(ctx)
	require.True(t, ok, "readable on demand after reload")
	assert.JSONEq(t, `{"success":true}`, string(payload))
}

func TestStore_LastAnalysisNotPersistedByDefault(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemory()

	New(backend.Session("tab")).Set(ctx, sampleResult())

	restarted := New(backend.Session("tab"))
	restarted.Load(ctx)
	_, ok := restarted.LastAnalysis(ctx)
	assert.False(t, ok)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := New(store.NewMemory().Session("tab"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			s.Set(ctx, sampleResult())
		}
	}()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-done:
			assert.True(t, s.HasData())
			return
		case <-deadline:
			t.Fatal("writer did not finish")
		default:
			s.Get()
		}
	}
}

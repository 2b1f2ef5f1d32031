// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taxonomy_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/aihub/internal/core/catalog"
	"github.com/taibuivan/aihub/internal/core/catalog/catalogtest"
	"github.com/taibuivan/aihub/internal/core/taxonomy"
	"github.com/taibuivan/aihub/internal/platform/apperr"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

/*
TestResolve_ConcurrentCallersConverge checks that N callers racing on the same
term observe one id and one stored row.
*/
func TestResolve_ConcurrentCallersConverge(t *testing.T) {
	store := catalogtest.New()

	// Two services simulate two processes sharing the database.
	services := []*taxonomy.Service{
		taxonomy.NewService(store, discardLogger()),
		taxonomy.NewService(store, discardLogger()),
	}

	const callers = 32
	ids := make([]int64, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = services[i%2].Resolve(context.Background(), catalog.NamespaceCategory, "Chatbots")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, 1, store.TermCount(catalog.NamespaceCategory))
}

// lostRace creates the term on the underlying store before reporting the
// conflict, as a competing process would.
type lostRace struct {
	*catalogtest.Store
}

func (race lostRace) CreateTerm(ctx context.Context, namespace, name, slug string) (*catalog.Term, error) {
	winner, err := race.Store.CreateTerm(ctx, namespace, name, slug)
	if err != nil {
		return nil, err
	}
	return nil, &catalog.TermExistsError{Namespace: namespace, Name: name, ExistingID: winner.ID}
}

/*
TestResolve_ExistsIsSuccess verifies the conflict signal yields the existing id.
*/
func TestResolve_ExistsIsSuccess(t *testing.T) {
	store := catalogtest.New()
	service := taxonomy.NewService(lostRace{store}, discardLogger())

	id, err := service.Resolve(context.Background(), catalog.NamespaceTag, "Video")
	require.NoError(t, err)

	stored, err := store.FindTermByName(context.Background(), catalog.NamespaceTag, "Video")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, id)
}

// gatedLookup holds the first name lookup until released and reports the
// context it was given.
type gatedLookup struct {
	*catalogtest.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (gate *gatedLookup) FindTermByName(ctx context.Context, namespace, name string) (*catalog.Term, error) {
	gate.once.Do(func() {
		close(gate.entered)
		<-gate.release
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return gate.Store.FindTermByName(ctx, namespace, name)
}

/*
TestResolve_CancelledCallerDoesNotFailOthers cancels the caller that started
the shared lookup; a caller waiting on the same term still gets the id.
*/
func TestResolve_CancelledCallerDoesNotFailOthers(t *testing.T) {
	store := catalogtest.New()
	gate := &gatedLookup{Store: store, entered: make(chan struct{}), release: make(chan struct{})}
	service := taxonomy.NewService(gate, discardLogger())

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := service.Resolve(first, catalog.NamespaceCategory, "Chatbots")
		firstErr <- err
	}()

	<-gate.entered
	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	// Released only after the second caller has joined the pending lookup
	time.AfterFunc(50*time.Millisecond, func() { close(gate.release) })

	id, err := service.Resolve(context.Background(), catalog.NamespaceCategory, "Chatbots")
	require.NoError(t, err)

	stored, err := store.FindTermByName(context.Background(), catalog.NamespaceCategory, "Chatbots")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, id)
	assert.Equal(t, 1, store.TermCount(catalog.NamespaceCategory))
}

/*
TestResolve_LookupOrder checks name, then slug matches before creating.
*/
func TestResolve_LookupOrder(t *testing.T) {
	ctx := context.Background()
	store := catalogtest.New()
	service := taxonomy.NewService(store, discardLogger())

	existing, err := store.CreateTerm(ctx, catalog.NamespaceCategory, "AI Writing", "ai-writing")
	require.NoError(t, err)

	byName, err := service.Resolve(ctx, catalog.NamespaceCategory, "  AI Writing ")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, byName)

	bySlug, err := service.Resolve(ctx, catalog.NamespaceCategory, "ai writing")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, bySlug)

	// Same name in another namespace is a different term
	other, err := service.Resolve(ctx, catalog.NamespaceTag, "AI Writing")
	require.NoError(t, err)
	assert.NotEqual(t, existing.ID, other)
}

/*
TestResolve_BlankName fails with a validation error naming the namespace.
*/
func TestResolve_BlankName(t *testing.T) {
	service := taxonomy.NewService(catalogtest.New(), discardLogger())

	_, err := service.Resolve(context.Background(), catalog.NamespaceInputType, "   ")
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, apperr.CodeValidation, appError.Code)
	assert.Contains(t, appError.Message, catalog.NamespaceInputType)
}

/*
TestCoalesce removes blanks and slug-equal duplicates.
*/
func TestCoalesce(t *testing.T) {
	got := taxonomy.Coalesce([]string{"Text", " text ", "", "Image", "TEXT", "Free", "image"})
	assert.Equal(t, []string{"Text", "Image", "Free"}, got)
}

/*
TestSlugify falls back to a hashed slug for names without ASCII characters.
*/
func TestSlugify(t *testing.T) {
	assert.Equal(t, "image-generation", taxonomy.Slugify("Image Generation"))

	hashed := taxonomy.Slugify("画像")
	assert.Regexp(t, `^term-[0-9a-z]+$`, hashed)
	assert.Equal(t, hashed, taxonomy.Slugify(" 画像 "))
}

/*
TestAttach links every namespace and coalesces the aggregated tags.
*/
func TestAttach(t *testing.T) {
	ctx := context.Background()
	store := catalogtest.New()
	service := taxonomy.NewService(store, discardLogger())

	record := &catalog.Record{Title: "Writer", Status: catalog.StatusPublish}
	require.NoError(t, store.CreateRecord(ctx, record))

	warnings := service.Attach(ctx, record.ID, taxonomy.Assignment{
		Category:     "AI Writing Assistant",
		PrimaryTask:  "Text Generation",
		Inputs:       []string{"Text", "text"},
		Outputs:      []string{"Text"},
		PriceTag:     "Freemium",
		PricingModel: "Subscription",
		Tags:         []string{"Freemium", "Writing"},
	})
	assert.Empty(t, warnings)

	terms, err := store.RecordTerms(ctx, record.ID)
	require.NoError(t, err)

	names := map[string][]string{}
	for _, term := range terms {
		names[term.Namespace] = append(names[term.Namespace], term.Name)
	}

	assert.Equal(t, []string{"AI Writing Assistant"}, names[catalog.NamespaceCategory])
	assert.ElementsMatch(t, []string{"Text Generation", "Text", "Freemium", "AI Writing Assistant", "Writing"}, names[catalog.NamespaceTag])
	assert.Equal(t, []string{"Subscription"}, names[catalog.NamespacePricingModel])
	assert.Equal(t, []string{"Text"}, names[catalog.NamespaceInputType])
	assert.Equal(t, []string{"Text"}, names[catalog.NamespaceOutputType])

	categories, err := service.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, 1, categories[0].Count)
}

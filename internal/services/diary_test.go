package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ymatsuda/kiroku/internal/services"
	"github.com/ymatsuda/kiroku/internal/testutil"
)

func mustCreate(t *testing.T, repo services.EntryRepository, date, content string) int64 {
	t.Helper()
	id, err := repo.Create(context.Background(), date, content)
	if err != nil {
		t.Fatalf("Create(%s): %v", date, err)
	}
	return id
}

func TestCreateAssignsIncreasingIDs(t *testing.T) {
	repo := testutil.NewEntryRepo(t)

	first := mustCreate(t, repo, "2023-10-18", "first entry of the day")
	second := mustCreate(t, repo, "2023-10-19", "second entry of the day")

	if second <= first {
		t.Errorf("second id = %d, want > %d", second, first)
	}
}

func TestCreateThenListRoundTrip(t *testing.T) {
	repo := testutil.NewEntryRepo(t)
	ctx := context.Background()

	id := mustCreate(t, repo, "2023-10-20", "walked along the river")

	entries, err := repo.List(ctx, services.EntryFilter{}, services.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.ID != id {
		t.Errorf("ID = %d, want %d", e.ID, id)
	}
	if e.Date != "2023-10-20" {
		t.Errorf("Date = %q, want %q", e.Date, "2023-10-20")
	}
	if e.Content != "walked along the river" {
		t.Errorf("Content = %q", e.Content)
	}
	if e.CreatedAt == "" {
		t.Error("CreatedAt is empty, want database-assigned timestamp")
	}
}

func TestListDefaultOrderIsDateDescending(t *testing.T) {
	repo := testutil.NewEntryRepo(t)
	ctx := context.Background()

	mustCreate(t, repo, "2023-10-18", "oldest entry content")
	mustCreate(t, repo, "2023-10-20", "newest entry content")
	mustCreate(t, repo, "2023-10-19", "middle entry content")

	entries, err := repo.List(ctx, services.EntryFilter{}, services.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	want := []string{"2023-10-20", "2023-10-19", "2023-10-18"}
	if len(entries) != len(want) {
		t.Fatalf("len(entries) = %d, want %d", len(entries), len(want))
	}
	for i, date := range want {
		if entries[i].Date != date {
			t.Errorf("entries[%d].Date = %q, want %q", i, entries[i].Date, date)
		}
	}
}

func TestListTieBreaksOnIDDescending(t *testing.T) {
	repo := testutil.NewEntryRepo(t)
	ctx := context.Background()

	a := mustCreate(t, repo, "2023-10-20", "morning entry text")
	b := mustCreate(t, repo, "2023-10-20", "evening entry text")

	// Same date sorted desc: the newer (higher) id comes first, and the
	// order is stable across repeated queries.
	for range 3 {
		entries, err := repo.List(ctx, services.EntryFilter{}, services.ListOptions{Limit: 10, SortBy: "date", SortOrder: "desc"})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("len(entries) = %d, want 2", len(entries))
		}
		if entries[0].ID != b || entries[1].ID != a {
			t.Errorf("order = [%d, %d], want [%d, %d]", entries[0].ID, entries[1].ID, b, a)
		}
	}
}

func TestListSortAscending(t *testing.T) {
	repo := testutil.NewEntryRepo(t)
	ctx := context.Background()

	mustCreate(t, repo, "2023-10-20", "newest entry content")
	mustCreate(t, repo, "2023-10-18", "oldest entry content")

	entries, err := repo.List(ctx, services.EntryFilter{}, services.ListOptions{Limit: 10, SortBy: "date", SortOrder: "asc"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if entries[0].Date != "2023-10-18" {
		t.Errorf("entries[0].Date = %q, want 2023-10-18", entries[0].Date)
	}
}

func TestListRejectsUnknownSortColumn(t *testing.T) {
	repo := testutil.NewEntryRepo(t)
	ctx := context.Background()

	mustCreate(t, repo, "2023-10-18", "oldest entry content")
	mustCreate(t, repo, "2023-10-20", "newest entry content")

	// An unknown column must not reach the query; the repository falls back
	// to sorting by date.
	entries, err := repo.List(ctx, services.EntryFilter{}, services.ListOptions{Limit: 10, SortBy: "content; DROP TABLE diaries", SortOrder: "desc"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if entries[0].Date != "2023-10-20" {
		t.Errorf("entries[0].Date = %q, want 2023-10-20", entries[0].Date)
	}

	// And the table is still there.
	if _, err := repo.Count(ctx, services.EntryFilter{}); err != nil {
		t.Errorf("Count after hostile sort: %v", err)
	}
}

func TestListLimitAndOffset(t *testing.T) {
	repo := testutil.NewEntryRepo(t)
	ctx := context.Background()

	dates := []string{"2023-10-15", "2023-10-16", "2023-10-17", "2023-10-18"}
	for _, d := range dates {
		mustCreate(t, repo, d, "entry for "+d)
	}

	entries, err := repo.List(ctx, services.EntryFilter{}, services.ListOptions{Limit: 2, Offset: 2, SortBy: "date", SortOrder: "desc"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Date != "2023-10-16" || entries[1].Date != "2023-10-15" {
		t.Errorf("page = [%s, %s], want [2023-10-16, 2023-10-15]", entries[0].Date, entries[1].Date)
	}
}

func TestSearchMatchesContentOrDate(t *testing.T) {
	repo := testutil.NewEntryRepo(t)
	ctx := context.Background()

	mustCreate(t, repo, "2023-10-18", "Went to see a MOVIE with friends")
	mustCreate(t, repo, "2023-10-19", "studied all afternoon")
	mustCreate(t, repo, "2023-11-02", "quiet day at home")

	// Case-insensitive content match.
	got, err := repo.List(ctx, services.EntryFilter{Search: "movie"}, services.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("List(search=movie): %v", err)
	}
	if len(got) != 1 || got[0].Date != "2023-10-18" {
		t.Errorf("search=movie matched %d entries, want the 2023-10-18 entry", len(got))
	}

	// Date substring match.
	got, err = repo.List(ctx, services.EntryFilter{Search: "2023-11"}, services.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("List(search=2023-11): %v", err)
	}
	if len(got) != 1 || got[0].Date != "2023-11-02" {
		t.Errorf("search=2023-11 matched %d entries, want the 2023-11-02 entry", len(got))
	}

	// Count applies the same filter.
	total, err := repo.Count(ctx, services.EntryFilter{Search: "movie"})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if total != 1 {
		t.Errorf("Count(search=movie) = %d, want 1", total)
	}
}

func TestSearchTermIsNotInterpretedAsSQL(t *testing.T) {
	repo := testutil.NewEntryRepo(t)
	ctx := context.Background()

	mustCreate(t, repo, "2023-10-18", "an ordinary entry")

	hostile := `'; DROP TABLE diaries; --`
	if _, err := repo.List(ctx, services.EntryFilter{Search: hostile}, services.ListOptions{Limit: 10}); err != nil {
		t.Fatalf("List(hostile search): %v", err)
	}
	total, err := repo.Count(ctx, services.EntryFilter{})
	if err != nil {
		t.Fatalf("Count after hostile search: %v", err)
	}
	if total != 1 {
		t.Errorf("Count = %d, want 1", total)
	}
}

func TestEmptyListReturnsEmptySlice(t *testing.T) {
	repo := testutil.NewEntryRepo(t)

	entries, err := repo.List(context.Background(), services.EntryFilter{}, services.ListOptions{Limit: 5})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if entries == nil {
		t.Error("List returned nil, want empty slice")
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d, want 0", len(entries))
	}
}

func TestOperationsOnUnmigratedStoreReturnErrNotInitialized(t *testing.T) {
	st := testutil.NewStore(t) // No migrations.
	repo := services.NewSQLiteEntryRepository(st.DB())
	ctx := context.Background()

	if _, err := repo.Create(ctx, "2023-10-18", "valid entry content"); !errors.Is(err, services.ErrNotInitialized) {
		t.Errorf("Create error = %v, want ErrNotInitialized", err)
	}
	if _, err := repo.List(ctx, services.EntryFilter{}, services.ListOptions{Limit: 5}); !errors.Is(err, services.ErrNotInitialized) {
		t.Errorf("List error = %v, want ErrNotInitialized", err)
	}
	if _, err := repo.Count(ctx, services.EntryFilter{}); !errors.Is(err, services.ErrNotInitialized) {
		t.Errorf("Count error = %v, want ErrNotInitialized", err)
	}
}

func TestSeedSampleEntriesIsIdempotent(t *testing.T) {
	st := testutil.NewStore(t)
	ctx := context.Background()
	if err := st.Migrate(ctx, services.EntryMigrations()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	if err := services.SeedSampleEntries(ctx, st.DB()); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := services.SeedSampleEntries(ctx, st.DB()); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	repo := services.NewSQLiteEntryRepository(st.DB())
	total, err := repo.Count(ctx, services.EntryFilter{})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if total != 3 {
		t.Errorf("Count after double seed = %d, want 3", total)
	}
}

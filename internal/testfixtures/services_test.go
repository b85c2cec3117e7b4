package testfixtures

import (
	"context"
	"testing"
	"time"
)

func TestServicesOverSQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := NewSQLiteHarness(t)
	factory := NewServiceFactory(WithClock(NewTickingClock(time.Time{}, time.Second)))
	services := factory.NewServices(ServicesDeps{Repositories: harness.Repositories})

	fixture := NewEventFixture(WithHost("host-1", "Mika"))
	event, err := services.Events.CreateEvent(ctx, fixture.Host(), fixture.Input())
	if err != nil {
		t.Fatalf("CreateEvent returned error: %v", err)
	}

	aiko := NewSubmissionFixture(
		WithParticipantName("Aiko"),
		WithIdentity("aiko@example.com"),
		WithSlot("2024-06-01", "0900-1000", true),
	)
	ben := NewSubmissionFixture(
		WithParticipantName("Ben"),
		WithSlot("2024-06-01", "0930-1100", false),
	)

	first, err := services.Responses.Submit(ctx, aiko.Params(event.ID))
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if _, err := services.Responses.Submit(ctx, ben.Params(event.ID)); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	// Aiko widens the range; the response keeps its ID.
	aiko = NewSubmissionFixture(
		WithParticipantName("Aiko"),
		WithIdentity("aiko@example.com"),
		WithMemo("can stay late"),
		WithSlot("2024-06-01", "0900-1100", true),
	)
	if dates := aiko.Dates(); len(dates) != 1 || dates[0] != "2024-06-01" {
		t.Fatalf("unexpected fixture dates %v", dates)
	}
	second, err := services.Responses.Submit(ctx, aiko.Params(event.ID))
	if err != nil {
		t.Fatalf("resubmission returned error: %v", err)
	}
	if second.ResponseID != first.ResponseID || second.Kind != "updated" {
		t.Fatalf("expected update of %s, got %+v", first.ResponseID, second)
	}

	results, err := services.Results.Results(ctx, event.ID)
	if err != nil {
		t.Fatalf("Results returned error: %v", err)
	}
	if len(results.Responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(results.Responses))
	}
	labels := make([]string, 0, len(results.Windows))
	for _, w := range results.Windows {
		labels = append(labels, w.Label)
	}
	if len(labels) != 3 || labels[0] != "9:30" || labels[2] != "10:30" {
		t.Fatalf("expected overlaps 9:30..10:30, got %v", labels)
	}

	removed, err := services.Sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected nothing left to sweep, removed %d", removed)
	}

	history, err := services.Responses.ListHistory(ctx, aiko.Principal)
	if err != nil {
		t.Fatalf("ListHistory returned error: %v", err)
	}
	if len(history) != 1 || history[0].EventTitle != fixture.Title || history[0].Memo != "can stay late" {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestSeedEvent(t *testing.T) {
	t.Parallel()

	harness := NewSQLiteHarness(t)
	fixture := harness.SeedEvent(t, NewEventFixture(WithEventID("seeded"), WithCandidateDates("2024-07-01")))

	factory := NewServiceFactory()
	services := factory.NewServices(ServicesDeps{Repositories: harness.Repositories})
	event, err := services.Events.GetEvent(context.Background(), fixture.ID)
	if err != nil {
		t.Fatalf("GetEvent returned error: %v", err)
	}
	if len(event.CandidateDates) != 1 || event.CandidateDates[0] != "2024-07-01" {
		t.Fatalf("unexpected candidate dates %v", event.CandidateDates)
	}
}

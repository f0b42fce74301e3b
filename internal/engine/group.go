package engine

import (
	"context"

	"losslessvault/internal/grouping"
	"losslessvault/internal/logging"
	"losslessvault/internal/progress"
)

// GroupReport summarizes a grouping pass.
type GroupReport struct {
	Photos     int
	Groups     int
	Duplicates int
}

// Group rebuilds duplicate groups from the whole catalog and replaces the
// recorded groups atomically. A cancelled pass records nothing.
func (e *Engine) Group(ctx context.Context, observer progress.Observer) (GroupReport, error) {
	ctx, runID, logger := e.begin(ctx, "group")
	obs := progress.OrNop(observer)
	var report GroupReport

	photos, err := e.catalog.ListPhotos(ctx, nil)
	if err != nil {
		return report, err
	}
	report.Photos = len(photos)

	obs.Observe(progress.Event{RunID: runID, Phase: progress.PhaseGroup, Kind: progress.KindStart, Total: len(photos)})
	var tally progress.Tally
	complete := func() {
		obs.Observe(progress.Event{RunID: runID, Phase: progress.PhaseGroup, Kind: progress.KindComplete, Total: len(photos), Counts: tally.Counts()})
	}

	groups, err := grouping.Builder{Workers: e.workers}.Build(ctx, photos)
	if err != nil {
		complete()
		return report, err
	}
	if err := e.catalog.RecordGroups(ctx, groups); err != nil {
		complete()
		return report, err
	}

	for _, g := range groups {
		report.Groups++
		report.Duplicates += len(g.Members) - 1
		sot, _ := g.SourceOfTruthPhoto()
		obs.Observe(progress.Event{
			RunID:   runID,
			Phase:   progress.PhaseGroup,
			Kind:    progress.KindItem,
			Outcome: tally.Add(progress.OutcomeGrouped),
			Path:    sot.Path,
		})
	}
	complete()

	logger.Info("grouping complete",
		logging.String(logging.FieldEventType, "group_complete"),
		logging.Int("photos", report.Photos),
		logging.Int("groups", report.Groups),
		logging.Int("duplicates", report.Duplicates),
	)
	return report, nil
}

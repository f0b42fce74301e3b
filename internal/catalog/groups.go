package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"losslessvault/internal/photo"
	"losslessvault/internal/sqlstore"
)

// RecordGroups replaces every stored group with groups in one transaction.
func (c *Catalog) RecordGroups(ctx context.Context, groups []photo.DuplicateGroup) error {
	return sqlstore.WithTx(ctx, c.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM duplicate_members"); err != nil {
			return fmt.Errorf("clear group members: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM duplicate_groups"); err != nil {
			return fmt.Errorf("clear groups: %w", err)
		}
		for _, g := range groups {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO duplicate_groups (id, source_of_truth, confidence) VALUES (?, ?, ?)",
				g.ID, g.SourceOfTruth, g.Confidence.String(),
			); err != nil {
				return fmt.Errorf("insert group %d: %w", g.ID, err)
			}
			for _, m := range g.Members {
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO duplicate_members (group_id, photo_id) VALUES (?, ?)",
					g.ID, m.ID,
				); err != nil {
					return fmt.Errorf("insert member %d of group %d: %w", m.ID, g.ID, err)
				}
			}
		}
		return nil
	})
}

type groupRow struct {
	ID            int64  `db:"id"`
	SourceOfTruth int64  `db:"source_of_truth"`
	Confidence    string `db:"confidence"`
}

type memberRow struct {
	GroupID int64 `db:"group_id"`
	photoRow
}

// ListGroups returns every group ordered by id with members ordered by id.
func (c *Catalog) ListGroups(ctx context.Context) ([]photo.DuplicateGroup, error) {
	var rows []groupRow
	if err := c.db.SelectContext(ctx, &rows, "SELECT id, source_of_truth, confidence FROM duplicate_groups ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	var members []memberRow
	err := c.db.SelectContext(ctx, &members, `SELECT m.group_id, `+prefixed("p", photoColumns)+`
        FROM duplicate_members m JOIN photos p ON p.id = m.photo_id
        ORDER BY m.group_id, p.id`)
	if err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	return assembleGroups(rows, members)
}

// GetGroup returns the group with id or ErrNotFound.
func (c *Catalog) GetGroup(ctx context.Context, id int64) (photo.DuplicateGroup, error) {
	var row groupRow
	err := c.db.GetContext(ctx, &row, "SELECT id, source_of_truth, confidence FROM duplicate_groups WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return photo.DuplicateGroup{}, fmt.Errorf("group %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return photo.DuplicateGroup{}, fmt.Errorf("get group: %w", err)
	}
	var members []memberRow
	err = c.db.SelectContext(ctx, &members, `SELECT m.group_id, `+prefixed("p", photoColumns)+`
        FROM duplicate_members m JOIN photos p ON p.id = m.photo_id
        WHERE m.group_id = ? ORDER BY p.id`, id)
	if err != nil {
		return photo.DuplicateGroup{}, fmt.Errorf("get group members: %w", err)
	}
	groups, err := assembleGroups([]groupRow{row}, members)
	if err != nil {
		return photo.DuplicateGroup{}, err
	}
	return groups[0], nil
}

func assembleGroups(rows []groupRow, members []memberRow) ([]photo.DuplicateGroup, error) {
	byGroup := make(map[int64][]photo.Photo, len(rows))
	for _, m := range members {
		p, err := m.toPhoto()
		if err != nil {
			return nil, err
		}
		byGroup[m.GroupID] = append(byGroup[m.GroupID], p)
	}
	out := make([]photo.DuplicateGroup, 0, len(rows))
	for _, row := range rows {
		confidence, err := photo.ParseConfidence(row.Confidence)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", row.ID, err)
		}
		out = append(out, photo.DuplicateGroup{
			ID:            row.ID,
			Members:       byGroup[row.ID],
			SourceOfTruth: row.SourceOfTruth,
			Confidence:    confidence,
		})
	}
	return out, nil
}

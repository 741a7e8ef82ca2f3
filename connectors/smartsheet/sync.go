package smartsheet

import (
	"context"
	"fmt"
	"log/slog"

	lo "github.com/samber/lo"

	"arr-rollup/domain/outline"
)

// API is the slice of the client the sync layer uses. *Client satisfies it.
type API interface {
	ListSheets(ctx context.Context) ([]Sheet, error)
	CreateSheet(ctx context.Context, spec SheetSpec) (Sheet, error)
	GetSheet(ctx context.Context, id int64) (*Sheet, error)
	AddRows(ctx context.Context, sheetID int64, rows []Row) ([]Row, error)
	UpdateRows(ctx context.Context, sheetID int64, rows []Row) error
	DeleteRows(ctx context.Context, sheetID int64, ids []int64) error
	SortSheet(ctx context.Context, sheetID, columnID int64, direction string) error
}

// Sync drives the sheet lifecycle for one rollup run: acquire the sheet, wipe
// stale rows, push the outline, link parents, sort. Every step blocks and any
// error aborts the run; a failed run restarts from a clean wipe.
type Sync struct {
	api             API
	locationCol     string
	arrCol          string
	deleteBatchSize int
	updateBatchSize int
}

// SyncOptions configures a Sync. Zero batch sizes fall back to the remote
// delete ceiling (300) and a conservative update batch (100).
type SyncOptions struct {
	LocationColumn  string
	ARRColumn       string
	DeleteBatchSize int
	UpdateBatchSize int
}

func NewSync(api API, opts SyncOptions) *Sync {
	if opts.DeleteBatchSize <= 0 {
		opts.DeleteBatchSize = 300
	}
	if opts.UpdateBatchSize <= 0 {
		opts.UpdateBatchSize = 100
	}
	if opts.LocationColumn == "" {
		opts.LocationColumn = "Location"
	}
	if opts.ARRColumn == "" {
		opts.ARRColumn = "ARR"
	}
	return &Sync{
		api:             api,
		locationCol:     opts.LocationColumn,
		arrCol:          opts.ARRColumn,
		deleteBatchSize: opts.DeleteBatchSize,
		updateBatchSize: opts.UpdateBatchSize,
	}
}

// Schema returns the column schema a fresh outline sheet is created with:
// the location column as primary, both TEXT_NUMBER.
func (s *Sync) Schema() []Column {
	return []Column{
		{Title: s.locationCol, Primary: true, Type: TypeTextNumber},
		{Title: s.arrCol, Type: TypeTextNumber},
	}
}

// Acquire finds the sheet named name, or creates it with the outline schema.
// Acquisition is idempotent: a second run reuses the existing sheet.
func (s *Sync) Acquire(ctx context.Context, name string) (*Sheet, error) {
	sheets, err := s.api.ListSheets(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sheets: %w", err)
	}
	if existing, ok := lo.Find(sheets, func(sh Sheet) bool { return sh.Name == name }); ok {
		sheet, err := s.api.GetSheet(ctx, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("fetching sheet %q: %w", name, err)
		}
		slog.Info("phase.sheet.acquire.found", "sheet", name, "id", sheet.ID, "rows", len(sheet.Rows))
		return sheet, nil
	}
	created, err := s.api.CreateSheet(ctx, SheetSpec{Name: name, Columns: s.Schema()})
	if err != nil {
		return nil, fmt.Errorf("creating sheet %q: %w", name, err)
	}
	slog.Info("phase.sheet.acquire.created", "sheet", name, "id", created.ID)
	return &created, nil
}

// Wipe deletes every existing row of the sheet, in batches bounded by the
// delete ceiling. An empty sheet makes no remote calls.
func (s *Sync) Wipe(ctx context.Context, sheet *Sheet) error {
	ids := lo.Map(sheet.Rows, func(r Row, _ int) int64 { return r.ID })
	for _, chunk := range lo.Chunk(ids, s.deleteBatchSize) {
		if err := s.api.DeleteRows(ctx, sheet.ID, chunk); err != nil {
			return fmt.Errorf("deleting %d rows from sheet %d: %w", len(chunk), sheet.ID, err)
		}
	}
	if len(ids) > 0 {
		slog.Info("phase.sheet.wipe.done", "sheet", sheet.ID, "deleted", len(ids))
	}
	sheet.Rows = nil
	return nil
}

// Push creates one sheet row per outline row, in outline order, and returns
// the created ids zipped back with their kinds. The store returns created rows
// in submission order, which is what makes the later parent pass valid.
func (s *Sync) Push(ctx context.Context, sheet *Sheet, rows []outline.Row) ([]outline.RowRef, error) {
	locCol, err := LookupColumn(sheet.Columns, s.locationCol)
	if err != nil {
		return nil, err
	}
	arrCol, err := LookupColumn(sheet.Columns, s.arrCol)
	if err != nil {
		return nil, err
	}

	wire := make([]Row, 0, len(rows))
	for _, row := range rows {
		var arr any = ""
		if row.HasARR {
			arr = row.ARR
		}
		wire = append(wire, Row{
			ToTop: true,
			Cells: []Cell{
				{ColumnID: locCol.ID, Value: row.Item},
				{ColumnID: arrCol.ID, Value: arr},
			},
		})
	}

	created, err := s.api.AddRows(ctx, sheet.ID, wire)
	if err != nil {
		return nil, fmt.Errorf("adding %d rows to sheet %d: %w", len(wire), sheet.ID, err)
	}
	if len(created) != len(rows) {
		return nil, fmt.Errorf("sheet %d: submitted %d rows, store returned %d", sheet.ID, len(rows), len(created))
	}
	refs := make([]outline.RowRef, len(created))
	for i, c := range created {
		refs[i] = outline.RowRef{ID: c.ID, Kind: rows[i].Kind}
	}
	slog.Info("phase.rows.create.done", "sheet", sheet.ID, "rows", len(refs))
	return refs, nil
}

// Indent pushes the computed parent links back to the sheet in batched update
// calls. It must only run after Push has returned the row ids.
func (s *Sync) Indent(ctx context.Context, sheet *Sheet, assignments []outline.ParentAssignment) error {
	updates := make([]Row, 0, len(assignments))
	for _, a := range assignments {
		u := Row{ID: a.ID, ToTop: true}
		if a.ParentID != 0 {
			parent := a.ParentID
			u.ParentID = &parent
		}
		updates = append(updates, u)
	}
	for _, chunk := range lo.Chunk(updates, s.updateBatchSize) {
		if err := s.api.UpdateRows(ctx, sheet.ID, chunk); err != nil {
			return fmt.Errorf("updating %d rows in sheet %d: %w", len(chunk), sheet.ID, err)
		}
	}
	slog.Info("phase.indent.done", "sheet", sheet.ID, "rows", len(updates))
	return nil
}

// SortByLocation issues the final descending sort on the location column.
func (s *Sync) SortByLocation(ctx context.Context, sheet *Sheet) error {
	col, err := LookupColumn(sheet.Columns, s.locationCol)
	if err != nil {
		return err
	}
	if err := s.api.SortSheet(ctx, sheet.ID, col.ID, SortDescending); err != nil {
		return fmt.Errorf("sorting sheet %d: %w", sheet.ID, err)
	}
	slog.Info("phase.sort.done", "sheet", sheet.ID, "column", s.locationCol)
	return nil
}

// Run executes the whole lifecycle for one flattened outline. An empty outline
// still wipes the sheet but skips creation, indentation and sorting.
func (s *Sync) Run(ctx context.Context, name string, rows []outline.Row) error {
	sheet, err := s.Acquire(ctx, name)
	if err != nil {
		return err
	}
	if err := s.Wipe(ctx, sheet); err != nil {
		return err
	}
	if len(rows) == 0 {
		slog.Info("phase.rows.create.skipped", "sheet", sheet.ID, "reason", "empty outline")
		return nil
	}
	refs, err := s.Push(ctx, sheet, rows)
	if err != nil {
		return err
	}
	if err := s.Indent(ctx, sheet, outline.AssignParents(refs)); err != nil {
		return err
	}
	return s.SortByLocation(ctx, sheet)
}

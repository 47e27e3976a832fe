// Package dataset 提供数据集的本地表操作与控制台数据集管理。
//
// Table 是行式的内存表（list-of-maps 之上的列视图），承载 JSONL/CSV
// 的加载保存、行列变换和打包（pack）语义；远端数据集的创建、导入、
// 发布、导出走 Service。
package dataset

import (
	"fmt"
	"sort"
)

// Row 为一行数据。
type Row = map[string]any

// PackColumn is the single column a packed table carries; each cell
// holds one group of rows ([]Row).
const PackColumn = "_pack"

// Table is an in-memory row table with a stable column order.
// Not safe for concurrent mutation.
type Table struct {
	columns []string
	rows    []Row
	packed  bool
}

// NewTable creates an empty table with the given column order.
func NewTable(columns ...string) *Table {
	return &Table{columns: append([]string(nil), columns...)}
}

// FromRows builds a table from rows. Column order is the sorted union
// of all keys.
func FromRows(rows []Row) *Table {
	seen := make(map[string]bool)
	for _, row := range rows {
		for k := range row {
			seen[k] = true
		}
	}
	columns := make([]string, 0, len(seen))
	for k := range seen {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	t := &Table{columns: columns}
	t.rows = make([]Row, 0, len(rows))
	for _, row := range rows {
		t.rows = append(t.rows, cloneRow(row))
	}
	return t
}

func cloneRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Columns returns the column names in order.
func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

// Packed reports whether the table is in packed form.
func (t *Table) Packed() bool { return t.packed }

// Row returns a copy of row i.
func (t *Table) Row(i int) (Row, error) {
	if i < 0 || i >= len(t.rows) {
		return nil, fmt.Errorf("dataset: row index %d out of range [0,%d)", i, len(t.rows))
	}
	return cloneRow(t.rows[i]), nil
}

// Rows returns a copy of all rows.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i, row := range t.rows {
		out[i] = cloneRow(row)
	}
	return out
}

// Append adds a row at the end. Keys outside the column set become new
// columns.
func (t *Table) Append(row Row) {
	t.absorbColumns(row)
	t.rows = append(t.rows, cloneRow(row))
}

// Insert places a row at index; index may equal Len (append position).
func (t *Table) Insert(index int, row Row) error {
	if index < 0 || index > len(t.rows) {
		return fmt.Errorf("dataset: insert index %d out of range [0,%d]", index, len(t.rows))
	}
	t.absorbColumns(row)
	t.rows = append(t.rows, nil)
	copy(t.rows[index+1:], t.rows[index:])
	t.rows[index] = cloneRow(row)
	return nil
}

// Delete removes row i.
func (t *Table) Delete(i int) error {
	if i < 0 || i >= len(t.rows) {
		return fmt.Errorf("dataset: delete index %d out of range [0,%d)", i, len(t.rows))
	}
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
	return nil
}

// Map rewrites every row through fn, preserving row count and order.
// fn 返回的新键会成为新列。
func (t *Table) Map(fn func(Row) (Row, error)) error {
	next := make([]Row, len(t.rows))
	for i, row := range t.rows {
		out, err := fn(cloneRow(row))
		if err != nil {
			return fmt.Errorf("dataset: map row %d: %w", i, err)
		}
		next[i] = out
	}
	t.rows = next
	for _, row := range t.rows {
		t.absorbColumns(row)
	}
	return nil
}

// Filter keeps the rows pred accepts, in order.
func (t *Table) Filter(pred func(Row) bool) {
	kept := t.rows[:0]
	for _, row := range t.rows {
		if pred(row) {
			kept = append(kept, row)
		}
	}
	t.rows = kept
}

// --- 列操作（打包状态下全部拒绝） ---

// Col returns the values of a column, row order preserved. Missing
// cells are nil.
func (t *Table) Col(name string) ([]any, error) {
	if t.packed {
		return nil, errPacked("read column")
	}
	if !t.hasColumn(name) {
		return nil, fmt.Errorf("dataset: no column %q", name)
	}
	out := make([]any, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[name]
	}
	return out, nil
}

// AppendColumn adds a column with one value per row.
func (t *Table) AppendColumn(name string, values []any) error {
	if t.packed {
		return errPacked("append column")
	}
	if t.hasColumn(name) {
		return fmt.Errorf("dataset: column %q already exists", name)
	}
	if len(values) != len(t.rows) {
		return fmt.Errorf("dataset: column %q has %d values, table has %d rows", name, len(values), len(t.rows))
	}
	t.columns = append(t.columns, name)
	for i, row := range t.rows {
		row[name] = values[i]
	}
	return nil
}

// DeleteColumn removes a column.
func (t *Table) DeleteColumn(name string) error {
	if t.packed {
		return errPacked("delete column")
	}
	if !t.hasColumn(name) {
		return fmt.Errorf("dataset: no column %q", name)
	}
	t.removeColumnName(name)
	for _, row := range t.rows {
		delete(row, name)
	}
	return nil
}

// RenameColumn renames a column in place.
func (t *Table) RenameColumn(old, new string) error {
	if t.packed {
		return errPacked("rename column")
	}
	if !t.hasColumn(old) {
		return fmt.Errorf("dataset: no column %q", old)
	}
	if t.hasColumn(new) {
		return fmt.Errorf("dataset: column %q already exists", new)
	}
	for i, c := range t.columns {
		if c == old {
			t.columns[i] = new
		}
	}
	for _, row := range t.rows {
		if v, ok := row[old]; ok {
			row[new] = v
			delete(row, old)
		}
	}
	return nil
}

// --- 打包 ---

// Pack collapses the table into a single PackColumn column where each
// cell carries one group of original rows. Until Unpack, column
// operations are rejected.
func (t *Table) Pack() error {
	if t.packed {
		return fmt.Errorf("dataset: table already packed")
	}
	groups := make([]Row, len(t.rows))
	for i, row := range t.rows {
		groups[i] = Row{PackColumn: []Row{cloneRow(row)}}
	}
	t.rows = groups
	t.columns = []string{PackColumn}
	t.packed = true
	return nil
}

// Unpack restores the flat row form from a packed table.
func (t *Table) Unpack() error {
	if !t.packed {
		return fmt.Errorf("dataset: table is not packed")
	}
	var flat []Row
	for i, row := range t.rows {
		group, ok := row[PackColumn].([]Row)
		if !ok {
			return fmt.Errorf("dataset: row %d has no packed group", i)
		}
		for _, r := range group {
			flat = append(flat, cloneRow(r))
		}
	}

	t.packed = false
	t.rows = nil
	t.columns = nil
	for _, row := range flat {
		t.Append(row)
	}
	return nil
}

func errPacked(op string) error {
	return fmt.Errorf("dataset: cannot %s on a packed table, unpack first", op)
}

func (t *Table) hasColumn(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

func (t *Table) removeColumnName(name string) {
	for i, c := range t.columns {
		if c == name {
			t.columns = append(t.columns[:i], t.columns[i+1:]...)
			return
		}
	}
}

func (t *Table) absorbColumns(row Row) {
	// 打包状态下唯一的列是 PackColumn，行操作针对行组，不引入新列
	if t.packed {
		return
	}
	keys := make([]string, 0, len(row))
	for k := range row {
		if !t.hasColumn(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	t.columns = append(t.columns, keys...)
}

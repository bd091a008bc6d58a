package postboot

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// SQLRepository maps a struct type onto one table. Column names come from
// `db` tags (lowercased field name when absent, skipped when "-"); the
// primary key is the field tagged `postboot:"id"`, or the "id" column.
type SQLRepository[T Document] struct {
	db         *sql.DB
	tableName  string
	columns    []string
	primaryKey string
}

func NewSQLRepository[T Document](db *sql.DB) *SQLRepository[T] {
	var doc T
	fields := fieldsOf(reflect.TypeOf(doc))

	columns := make([]string, len(fields))
	primaryKey := "id"
	for i, f := range fields {
		columns[i] = f.column
		if f.primary {
			primaryKey = f.column
		}
	}

	return &SQLRepository[T]{
		db:         db,
		tableName:  doc.GetTableName(),
		columns:    columns,
		primaryKey: primaryKey,
	}
}

func (r *SQLRepository[T]) TableName() string {
	return r.tableName
}

// Insert writes the columns of values, which may be any struct mapped with
// the same tag rules as T, and returns the stored row.
func (r *SQLRepository[T]) Insert(ctx context.Context, values interface{}) (T, error) {
	var result T
	fields, args := r.extractFieldsAndValues(values)
	if len(fields) == 0 {
		return result, ErrInvalidArgument.New("no columns to insert")
	}
	for _, field := range fields {
		if !r.hasColumn(field) {
			return result, ErrInvalidArgument.New(fmt.Sprintf("unknown column %q for %s", field, r.tableName))
		}
	}

	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		r.tableName,
		strings.Join(fields, ","),
		strings.Join(placeholders, ","),
		r.selectList())

	row := r.db.QueryRowContext(ctx, query, args...)
	if err := r.scanRow(row, &result); err != nil {
		return result, ClassifySQLError(err, r.tableName+" row")
	}
	return result, nil
}

// InsertValues is Insert without the returned row.
func (r *SQLRepository[T]) InsertValues(ctx context.Context, values interface{}) error {
	_, err := r.Insert(ctx, values)
	return err
}

func (r *SQLRepository[T]) FindById(ctx context.Context, id interface{}) (T, error) {
	var result T
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", r.selectList(), r.tableName, r.primaryKey)
	row := r.db.QueryRowContext(ctx, query, id)
	if err := r.scanRow(row, &result); err != nil {
		return result, ClassifySQLError(err, fmt.Sprintf("%s with %s %v", r.tableName, r.primaryKey, id))
	}
	return result, nil
}

// UpdateById sets the given columns on the row with the given primary key
// and returns the updated row.
func (r *SQLRepository[T]) UpdateById(ctx context.Context, id interface{}, changes map[string]interface{}) (T, error) {
	var result T
	if len(changes) == 0 {
		return result, ErrInvalidArgument.New("no columns to update")
	}

	fields := sortedKeys(changes)
	updates := make([]string, len(fields))
	args := make([]interface{}, 0, len(fields)+1)
	for i, field := range fields {
		if !r.hasColumn(field) || field == r.primaryKey {
			return result, ErrInvalidArgument.New(fmt.Sprintf("column %q cannot be updated on %s", field, r.tableName))
		}
		updates[i] = fmt.Sprintf("%s = $%d", field, i+1)
		args = append(args, changes[field])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d RETURNING %s",
		r.tableName,
		strings.Join(updates, ","),
		r.primaryKey,
		len(args),
		r.selectList())

	row := r.db.QueryRowContext(ctx, query, args...)
	if err := r.scanRow(row, &result); err != nil {
		return result, ClassifySQLError(err, fmt.Sprintf("%s with %s %v", r.tableName, r.primaryKey, id))
	}
	return result, nil
}

// FindBy returns the rows matching every equality filter. An empty sort
// field orders by primary key.
func (r *SQLRepository[T]) FindBy(ctx context.Context, filters map[string]interface{}, pageRequest PageRequest) ([]T, error) {
	conditions, args, err := r.buildWhereClause(filters)
	if err != nil {
		return nil, err
	}

	sortField := pageRequest.Sort.Field
	if sortField == "" {
		sortField = r.primaryKey
	}
	if !r.hasColumn(sortField) {
		return nil, ErrInvalidArgument.New(fmt.Sprintf("unknown sort column %q for %s", sortField, r.tableName))
	}
	direction := "ASC"
	if pageRequest.Sort.Direction == Descending {
		direction = "DESC"
	}

	var query strings.Builder
	fmt.Fprintf(&query, "SELECT %s FROM %s", r.selectList(), r.tableName)
	if conditions != "" {
		fmt.Fprintf(&query, " WHERE %s", conditions)
	}
	fmt.Fprintf(&query, " ORDER BY %s %s", sortField, direction)
	if pageRequest.Size > 0 {
		fmt.Fprintf(&query, " LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, pageRequest.Size, pageRequest.offset())
	}

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, ClassifySQLError(err, r.tableName)
	}
	defer rows.Close()

	results, err := r.scanRows(rows)
	if err != nil {
		return nil, ClassifySQLError(err, r.tableName)
	}
	return results, nil
}

func (r *SQLRepository[T]) FindAll(ctx context.Context) ([]T, error) {
	return r.FindBy(ctx, nil, PageRequest{})
}

// DeleteWhereLike deletes every row whose column matches the LIKE pattern in
// a single statement and returns the number of rows removed. The pattern is
// passed through as-is; callers escape it when they want a literal match.
func (r *SQLRepository[T]) DeleteWhereLike(ctx context.Context, field, pattern string) (int64, error) {
	if !r.hasColumn(field) {
		return 0, ErrInvalidArgument.New(fmt.Sprintf("unknown column %q for %s", field, r.tableName))
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s LIKE $1", r.tableName, field)
	res, err := r.db.ExecContext(ctx, query, pattern)
	if err != nil {
		return 0, ClassifySQLError(err, r.tableName)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, ClassifySQLError(err, r.tableName)
	}
	return deleted, nil
}

func (r *SQLRepository[T]) CountBy(ctx context.Context, field string, value interface{}) (int64, error) {
	if !r.hasColumn(field) {
		return 0, ErrInvalidArgument.New(fmt.Sprintf("unknown column %q for %s", field, r.tableName))
	}

	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = $1", r.tableName, field)
	if err := r.db.QueryRowContext(ctx, query, value).Scan(&count); err != nil {
		return 0, ClassifySQLError(err, r.tableName)
	}
	return count, nil
}

func (r *SQLRepository[T]) ExistsBy(ctx context.Context, field string, value interface{}) (bool, error) {
	count, err := r.CountBy(ctx, field, value)
	return count > 0, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *SQLRepository[T]) scanRow(row rowScanner, dest *T) error {
	val := reflect.ValueOf(dest).Elem()
	fields := fieldsOf(val.Type())

	scanArgs := make([]interface{}, len(fields))
	for i, f := range fields {
		scanArgs[i] = val.Field(f.index).Addr().Interface()
	}

	return row.Scan(scanArgs...)
}

func (r *SQLRepository[T]) scanRows(rows *sql.Rows) ([]T, error) {
	results := []T{}
	for rows.Next() {
		var item T
		if err := r.scanRow(rows, &item); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

func (r *SQLRepository[T]) extractFieldsAndValues(doc interface{}) ([]string, []interface{}) {
	v := reflect.Indirect(reflect.ValueOf(doc))
	if v.Kind() != reflect.Struct {
		return nil, nil
	}

	var fields []string
	var values []interface{}
	for _, f := range fieldsOf(v.Type()) {
		fields = append(fields, f.column)
		values = append(values, v.Field(f.index).Interface())
	}
	return fields, values
}

func (r *SQLRepository[T]) buildWhereClause(filters map[string]interface{}) (string, []interface{}, error) {
	var conditions []string
	var values []interface{}

	for i, field := range sortedKeys(filters) {
		if !r.hasColumn(field) {
			return "", nil, ErrInvalidArgument.New(fmt.Sprintf("unknown filter column %q for %s", field, r.tableName))
		}
		conditions = append(conditions, fmt.Sprintf("%s = $%d", field, i+1))
		values = append(values, filters[field])
	}

	return strings.Join(conditions, " AND "), values, nil
}

func (r *SQLRepository[T]) selectList() string {
	return strings.Join(r.columns, ",")
}

func (r *SQLRepository[T]) hasColumn(name string) bool {
	for _, c := range r.columns {
		if c == name {
			return true
		}
	}
	return false
}

type mappedField struct {
	index   int
	column  string
	primary bool
}

func fieldsOf(typ reflect.Type) []mappedField {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	var fields []mappedField
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		column := field.Tag.Get("db")
		if column == "-" {
			continue
		}
		if column == "" {
			column = strings.ToLower(field.Name)
		}
		fields = append(fields, mappedField{
			index:   i,
			column:  column,
			primary: field.Tag.Get("postboot") == "id",
		})
	}
	return fields
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package postboot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
)

// CommandRunner executes one CLI invocation with the given arguments and
// standard input, writing to stdout and stderr.
type CommandRunner func(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error

type DBSeeder interface {
	Seed(ctx context.Context, table string, data *godog.Table) error
}

// TestSuite holds the state shared by the steps of one scenario.
type TestSuite struct {
	T         *testing.T
	Run       CommandRunner
	Reset     func(ctx context.Context) error
	Output    string
	ErrOutput string
	LastErr   error
	Storage   map[string]string
	DbSeeders map[string]DBSeeder
}

type TestLogger struct {
	T *testing.T
}

func (ts *TestSuite) RegisterDBSeeder(table string, seeder DBSeeder) {
	if ts.DbSeeders == nil {
		ts.DbSeeders = make(map[string]DBSeeder)
	}
	ts.DbSeeders[table] = seeder
}

func (ts *TestSuite) InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		ts.Storage = make(map[string]string)
	})
}

func (ts *TestSuite) InitializeScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		ts.Output = ""
		ts.ErrOutput = ""
		ts.LastErr = nil
		if ts.Reset != nil {
			return c, ts.Reset(c)
		}
		return c, nil
	})

	ctx.Step(`^the "([^"]*)" table has the following rows$`, ts.tableHasTheFollowingRows)
	ctx.Step(`^I run "([^"]*)"$`, ts.iRun)
	ctx.Step(`^I run "([^"]*)" with input:$`, ts.iRunWithInput)
	ctx.Step(`^the command should succeed$`, ts.theCommandShouldSucceed)
	ctx.Step(`^the command should fail with "([^"]*)"$`, ts.theCommandShouldFailWith)
	ctx.Step(`^the output should contain "([^"]*)"$`, ts.theOutputShouldContain)
	ctx.Step(`^the output should not contain "([^"]*)"$`, ts.theOutputShouldNotContain)
	ctx.Step(`^"([^"]*)" should appear before "([^"]*)" in the output$`, ts.shouldAppearBefore)
	ctx.Step(`^the number after "([^"]*)" is stored as "([^"]*)"$`, ts.theNumberAfterIsStoredAs)
}

func (ts *TestSuite) tableHasTheFollowingRows(ctx context.Context, table string, data *godog.Table) error {
	seeder, ok := ts.DbSeeders[table]
	if !ok {
		return fmt.Errorf("no seeder registered for table %s", table)
	}
	return seeder.Seed(ctx, table, data)
}

func (ts *TestSuite) iRun(ctx context.Context, commandLine string) error {
	return ts.run(ctx, commandLine, "")
}

func (ts *TestSuite) iRunWithInput(ctx context.Context, commandLine string, input *godog.DocString) error {
	return ts.run(ctx, commandLine, input.Content)
}

func (ts *TestSuite) run(ctx context.Context, commandLine, input string) error {
	if ts.Run == nil {
		return fmt.Errorf("test suite has no command runner")
	}

	args := splitArgs(ts.expand(commandLine))
	var stdout, stderr bytes.Buffer
	ts.LastErr = ts.Run(ctx, args, strings.NewReader(input), &stdout, &stderr)
	ts.Output = stdout.String()
	ts.ErrOutput = stderr.String()
	return nil
}

func (ts *TestSuite) theCommandShouldSucceed() error {
	if ts.LastErr != nil {
		return fmt.Errorf("expected success, got %v\nstdout:\n%s", ts.LastErr, ts.Output)
	}
	return nil
}

func (ts *TestSuite) theCommandShouldFailWith(expected string) error {
	if ts.LastErr == nil {
		return fmt.Errorf("expected failure containing %q, command succeeded\nstdout:\n%s", expected, ts.Output)
	}
	if !strings.Contains(ts.LastErr.Error(), expected) {
		return fmt.Errorf("expected error containing %q, got %q", expected, ts.LastErr.Error())
	}
	return nil
}

func (ts *TestSuite) theOutputShouldContain(expected string) error {
	expected = ts.expand(expected)
	if !strings.Contains(ts.Output, expected) {
		return fmt.Errorf("output does not contain %q\nstdout:\n%s", expected, ts.Output)
	}
	return nil
}

func (ts *TestSuite) theOutputShouldNotContain(unexpected string) error {
	unexpected = ts.expand(unexpected)
	if strings.Contains(ts.Output, unexpected) {
		return fmt.Errorf("output unexpectedly contains %q\nstdout:\n%s", unexpected, ts.Output)
	}
	return nil
}

func (ts *TestSuite) shouldAppearBefore(first, second string) error {
	i := strings.Index(ts.Output, first)
	j := strings.Index(ts.Output, second)
	if i < 0 || j < 0 {
		return fmt.Errorf("output must contain both %q and %q\nstdout:\n%s", first, second, ts.Output)
	}
	if i > j {
		return fmt.Errorf("%q appears after %q\nstdout:\n%s", first, second, ts.Output)
	}
	return nil
}

func (ts *TestSuite) theNumberAfterIsStoredAs(prefix, key string) error {
	re := regexp.MustCompile(regexp.QuoteMeta(prefix) + `\s*(-?\d+)`)
	match := re.FindStringSubmatch(ts.Output)
	if match == nil {
		return fmt.Errorf("no number after %q in output\nstdout:\n%s", prefix, ts.Output)
	}
	ts.Storage[key] = match[1]
	return nil
}

// expand replaces {key} with values stored by earlier steps.
func (ts *TestSuite) expand(s string) string {
	for key, value := range ts.Storage {
		s = strings.ReplaceAll(s, "{"+key+"}", value)
	}
	return s
}

// splitArgs splits on whitespace; single quotes group words into one argument.
func splitArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuotes, hasArg := false, false

	for _, r := range s {
		switch {
		case r == '\'':
			inQuotes = !inQuotes
			hasArg = true
		case !inQuotes && (r == ' ' || r == '\t'):
			if hasArg {
				args = append(args, current.String())
				current.Reset()
				hasArg = false
			}
		default:
			current.WriteRune(r)
			hasArg = true
		}
	}
	if hasArg {
		args = append(args, current.String())
	}
	return args
}

// Inserter stores one mapped struct. SQLRepository implements it.
type Inserter interface {
	InsertValues(ctx context.Context, values interface{}) error
}

// GenericDBSeeder populates structs from Gherkin tables by reflection and
// stores them through the registered Inserter.
type GenericDBSeeder struct {
	Constructors map[string]func() interface{}
	Targets      map[string]Inserter
}

func NewGenericDBSeeder() *GenericDBSeeder {
	return &GenericDBSeeder{
		Constructors: make(map[string]func() interface{}),
		Targets:      make(map[string]Inserter),
	}
}

func (gds *GenericDBSeeder) Register(name string, constructor func() interface{}, target Inserter) {
	gds.Constructors[name] = constructor
	gds.Targets[name] = target
}

func (gds *GenericDBSeeder) Seed(ctx context.Context, table string, data *godog.Table) error {
	constructor, ok := gds.Constructors[table]
	if !ok {
		return fmt.Errorf("no constructor registered for table: %s", table)
	}
	target := gds.Targets[table]

	if len(data.Rows) < 2 {
		return fmt.Errorf("table must have a header row and at least one data row")
	}

	headers := data.Rows[0].Cells
	for i := 1; i < len(data.Rows); i++ {
		row := data.Rows[i]
		instance := constructor()

		val := reflect.ValueOf(instance).Elem()
		for j, cell := range row.Cells {
			column := headers[j].Value
			field := fieldForColumn(val, column)
			if !field.IsValid() || !field.CanSet() {
				return fmt.Errorf("could not set column %s for table %s", column, table)
			}
			if err := setFromString(field, cell.Value); err != nil {
				return fmt.Errorf("column %s: %w", column, err)
			}
		}

		if err := target.InsertValues(ctx, instance); err != nil {
			return err
		}
	}
	return nil
}

func fieldForColumn(val reflect.Value, column string) reflect.Value {
	if field := val.FieldByName(toPascalCase(column)); field.IsValid() {
		return field
	}
	typ := val.Type()
	for k := 0; k < typ.NumField(); k++ {
		if typ.Field(k).Tag.Get("db") == column {
			return val.Field(k)
		}
	}
	return reflect.Value{}
}

func setFromString(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if value == "" {
			field.SetInt(0)
			return nil
		}
		intVal, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("failed to parse int: %w", err)
		}
		field.SetInt(intVal)
	case reflect.Bool:
		if value == "" {
			field.SetBool(false)
			return nil
		}
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("failed to parse bool: %w", err)
		}
		field.SetBool(boolVal)
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}

func toPascalCase(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (tl *TestLogger) Write(p []byte) (n int, err error) {
	if tl.T != nil {
		tl.T.Logf("%s", p)
	}
	return len(p), nil
}

// RunFeatures runs the Gherkin features under paths and fails t if any
// scenario fails.
func RunFeatures(t *testing.T, suite *TestSuite, paths ...string) {
	suite.T = t
	if len(paths) == 0 {
		paths = []string{"features"}
	}
	opts := godog.Options{
		Format:    "pretty",
		Output:    colors.Colored(&TestLogger{T: t}),
		Paths:     paths,
		Strict:    true,
		Randomize: 0,
	}

	status := godog.TestSuite{
		Name:                 "postctl",
		TestSuiteInitializer: suite.InitializeTestSuite,
		ScenarioInitializer:  suite.InitializeScenario,
		Options:              &opts,
	}.Run()
	if status != 0 {
		t.Fatalf("feature run failed with status %d", status)
	}
}

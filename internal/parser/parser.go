package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"fleetbook/internal/models"

	"github.com/shopspring/decimal"
)

// Kind is the entry type held by an import file
type Kind string

const (
	KindTrip    Kind = "trip"
	KindFuel    Kind = "fuel"
	KindExpense Kind = "expense"
)

// ParseKind accepts trip(s), fuel and expense(s)
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trip", "trips":
		return KindTrip, nil
	case "fuel":
		return KindFuel, nil
	case "expense", "expenses":
		return KindExpense, nil
	}
	return "", fmt.Errorf("unknown entry kind %q (use trip, fuel or expense)", s)
}

// Problem is a skipped input line
type Problem struct {
	Line int
	Err  error
}

func (p Problem) String() string {
	return fmt.Sprintf("line %d: %v", p.Line, p.Err)
}

// Batch holds the entries read from one file. VehicleID may hold either a
// vehicle id or a registration number; the caller resolves it.
type Batch struct {
	Kind     Kind
	Trips    []models.TripInput
	Fuel     []models.FuelInput
	Expenses []models.ExpenseInput
	Problems []Problem
	// Lines holds the source line of each entry, trips then fuel then expenses
	Lines []int
}

// Line returns the source line of the n-th entry, counting trips then fuel
// then expenses. Batches built by hand fall back to n+1.
func (b *Batch) Line(n int) int {
	if n >= 0 && n < len(b.Lines) {
		return b.Lines[n]
	}
	return n + 1
}

// Len is the number of entries read
func (b *Batch) Len() int {
	return len(b.Trips) + len(b.Fuel) + len(b.Expenses)
}

// Parser handles parsing of entry import files
type Parser struct {
	format string
	kind   Kind
}

// NewParser creates a new parser with the specified format (csv, json or jsonl)
func NewParser(format string, kind Kind) *Parser {
	return &Parser{format: format, kind: kind}
}

// FormatFromName guesses the format from a file extension
func FormatFromName(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return "csv"
	case strings.HasSuffix(lower, ".jsonl"), strings.HasSuffix(lower, ".ndjson"):
		return "jsonl"
	}
	return "json"
}

// ParseFile parses an import file
func (p *Parser) ParseFile(filename string) (*Batch, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return p.Parse(file)
}

// Parse reads entries from r. Malformed rows are recorded as problems and skipped.
func (p *Parser) Parse(r io.Reader) (*Batch, error) {
	var (
		records []record
		err     error
	)
	switch strings.ToLower(p.format) {
	case "csv":
		records, err = parseCSV(r)
	case "json", "jsonl", "ndjson":
		records, err = parseJSON(r)
	default:
		return nil, fmt.Errorf("unsupported format: %s", p.format)
	}
	if err != nil {
		return nil, err
	}

	b := &Batch{Kind: p.kind}
	for _, rec := range records {
		if rec.err != nil {
			b.Problems = append(b.Problems, Problem{Line: rec.line, Err: rec.err})
			continue
		}
		if err := b.add(p.kind, rec); err != nil {
			b.Problems = append(b.Problems, Problem{Line: rec.line, Err: err})
			continue
		}
		b.Lines = append(b.Lines, rec.line)
	}
	return b, nil
}

// record is one input row with normalised keys
type record struct {
	line   int
	fields map[string]string
	err    error
}

func (r record) get(keys ...string) string {
	for _, k := range keys {
		if v, ok := r.fields[normalizeKey(k)]; ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// normalizeKey folds vehicle_id, vehicleId and "Vehicle ID" to the same key
func normalizeKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.NewReplacer("_", "", " ", "", "-", "").Replace(k)
}

// parseCSV parses CSV formatted entries with a header row
func parseCSV(r io.Reader) ([]record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable fields

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = normalizeKey(h)
	}

	var results []record
	lineNum := 1

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			results = append(results, record{line: lineNum, err: err})
			continue
		}

		fields := make(map[string]string, len(keys))
		for i, k := range keys {
			if i < len(row) {
				fields[k] = row[i]
			}
		}
		results = append(results, record{line: lineNum, fields: fields})
	}

	return results, nil
}

// parseJSON accepts a JSON array of objects or newline-delimited objects
func parseJSON(r io.Reader) ([]record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	var objects []map[string]any
	if err := json.Unmarshal(data, &objects); err == nil {
		results := make([]record, 0, len(objects))
		for i, obj := range objects {
			results = append(results, record{line: i + 1, fields: flatten(obj)})
		}
		return results, nil
	}

	return parseJSONLines(bytes.NewReader(data))
}

// parseJSONLines parses newline-delimited JSON
func parseJSONLines(r io.Reader) ([]record, error) {
	var results []record
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "[" || line == "]" {
			continue
		}

		// Remove trailing comma if present
		line = strings.TrimSuffix(line, ",")

		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			results = append(results, record{line: lineNum, err: err})
			continue
		}
		results = append(results, record{line: lineNum, fields: flatten(obj)})
	}

	return results, scanner.Err()
}

func flatten(obj map[string]any) map[string]string {
	fields := make(map[string]string, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			fields[normalizeKey(k)] = val
		case float64:
			fields[normalizeKey(k)] = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			fields[normalizeKey(k)] = fmt.Sprint(val)
		}
	}
	return fields
}

func (b *Batch) add(kind Kind, rec record) error {
	switch kind {
	case KindTrip:
		in, err := recordToTrip(rec)
		if err != nil {
			return err
		}
		b.Trips = append(b.Trips, in)
	case KindFuel:
		in, err := recordToFuel(rec)
		if err != nil {
			return err
		}
		b.Fuel = append(b.Fuel, in)
	case KindExpense:
		in, err := recordToExpense(rec)
		if err != nil {
			return err
		}
		b.Expenses = append(b.Expenses, in)
	default:
		return fmt.Errorf("unknown entry kind %q", kind)
	}
	return nil
}

func recordToTrip(rec record) (models.TripInput, error) {
	var in models.TripInput
	var err error

	if in.Date, err = parseDate(rec.get("date")); err != nil {
		return in, err
	}
	in.VehicleID = rec.get("vehicle_id", "vehicle", "reg_no", "number")
	in.DriverName = rec.get("driver_name", "driver")
	if in.OpeningKm, err = parseInt("openingKm", rec.get("opening_km", "opening")); err != nil {
		return in, err
	}
	if in.ClosingKm, err = parseInt("closingKm", rec.get("closing_km", "closing")); err != nil {
		return in, err
	}

	tripType := rec.get("trip_type", "type")
	if tripType == "" {
		in.TripType = models.TripLocal
	} else if in.TripType, err = models.ParseTripType(tripType); err != nil {
		return in, err
	}

	in.CustomerName = rec.get("customer_name", "customer")
	in.CustomerContact = rec.get("customer_contact", "contact")
	in.RouteDetails = rec.get("route_details", "route", "trip/route")
	if in.Income, err = parseMoney("income", rec.get("income", "amount")); err != nil {
		return in, err
	}

	payment := rec.get("payment_mode", "payment")
	if payment == "" {
		in.PaymentMode = models.PaymentCash
	} else if in.PaymentMode, err = models.ParsePaymentMode(payment); err != nil {
		return in, err
	}
	return in, nil
}

func recordToFuel(rec record) (models.FuelInput, error) {
	var in models.FuelInput
	var err error

	if in.Date, err = parseDate(rec.get("date")); err != nil {
		return in, err
	}
	in.VehicleID = rec.get("vehicle_id", "vehicle", "reg_no", "number")
	if in.FuelType, err = models.ParseFuelType(rec.get("fuel_type", "fuel")); err != nil {
		return in, err
	}
	qty := rec.get("quantity", "qty")
	if in.Quantity, err = strconv.ParseFloat(qty, 64); err != nil {
		return in, &models.ValidationError{Field: "quantity", Message: fmt.Sprintf("invalid number %q", qty)}
	}
	if in.Cost, err = parseMoney("cost", rec.get("cost", "amount")); err != nil {
		return in, err
	}
	in.StationName = rec.get("station_name", "station")
	return in, nil
}

func recordToExpense(rec record) (models.ExpenseInput, error) {
	var in models.ExpenseInput
	var err error

	if in.Date, err = parseDate(rec.get("date")); err != nil {
		return in, err
	}
	in.VehicleID = rec.get("vehicle_id", "vehicle", "reg_no", "number")
	if in.Category, err = models.ParseExpenseCategory(rec.get("category")); err != nil {
		return in, err
	}
	if in.Amount, err = parseMoney("amount", rec.get("amount")); err != nil {
		return in, err
	}
	in.Notes = rec.get("notes", "description")
	return in, nil
}

// parseDate accepts the day layouts of models.ParseDate and Unix seconds
func parseDate(s string) (models.Date, error) {
	if d, err := models.ParseDate(s); err == nil {
		return d, nil
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		return models.DateOf(time.Unix(ts, 0).UTC()), nil
	}
	return "", &models.ValidationError{Field: "date", Message: fmt.Sprintf("unable to parse date %q", s)}
}

func parseInt(field, s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Odometers exported by spreadsheets often carry a ".0"
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, &models.ValidationError{Field: field, Message: fmt.Sprintf("invalid whole number %q", s)}
		}
		n = int64(f)
	}
	return n, nil
}

func parseMoney(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.NewReplacer(",", "", "₹", "").Replace(s)
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, &models.ValidationError{Field: field, Message: fmt.Sprintf("invalid amount %q", s)}
	}
	return d, nil
}

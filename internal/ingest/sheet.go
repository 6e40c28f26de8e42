// Package ingest reads survey workbooks into reconciliation rows.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/stwalsh4118/landsync/internal/identity"
	"github.com/stwalsh4118/landsync/internal/models"
	"github.com/stwalsh4118/landsync/internal/reconcile"
	"github.com/xuri/excelize/v2"
)

// DefaultHeaderScanRows is how many leading rows are searched for the header.
const DefaultHeaderScanRows = 3

var (
	// ErrNoHeader is returned when none of the scanned rows looks like a header.
	ErrNoHeader = errors.New("no header row found")
	// ErrSheetNotFound is returned when the requested sheet does not exist.
	ErrSheetNotFound = errors.New("sheet not found")
)

// headerMarkers identify the header row; any one of them is enough.
var headerMarkers = []string{"NAME", "SURNAME", "IDCARD", "SPAR_CODE", "NUM_APAR"}

// codeColumns hold identifiers that spreadsheets often store as numbers.
var codeColumns = map[string]bool{
	"IDCARD":   true,
	"NUM_APAR": true,
	"SPAR_NO":  true,
	"NUM_SPAR": true,
	"APAR_NO":  true,
	"CODE_DNP": true,
	"HOME_NO":  true,
	"HOME_MOO": true,
	"PAR_MOO":  true,
	"BAN_TYPE": true,
}

// Options controls how a workbook is read.
type Options struct {
	Sheet          string // defaults to the first sheet
	HeaderScanRows int    // defaults to DefaultHeaderScanRows
}

// Sheet is a parsed worksheet with its header located.
type Sheet struct {
	name      string
	headerRow int
	columns   map[string]int
	data      [][]string
}

// OpenFile reads the workbook at path.
func OpenFile(path string, opts Options) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return Open(f, opts)
}

// Open reads a workbook from r. Cells are read as raw values so numeric identifiers are not
// reformatted by the cell's display format.
func Open(r io.Reader, opts Options) (*Sheet, error) {
	if opts.HeaderScanRows <= 0 {
		opts.HeaderScanRows = DefaultHeaderScanRows
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workbook: %w", err)
	}
	defer f.Close()

	name := opts.Sheet
	if name == "" {
		name = f.GetSheetName(0)
	}
	if name == "" {
		return nil, ErrSheetNotFound
	}
	if idx, err := f.GetSheetIndex(name); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", name, err)
	}

	headerRow, columns, err := locateHeader(rows, opts.HeaderScanRows)
	if err != nil {
		return nil, err
	}

	return &Sheet{
		name:      name,
		headerRow: headerRow,
		columns:   columns,
		data:      rows[headerRow+1:],
	}, nil
}

func locateHeader(rows [][]string, scan int) (int, map[string]int, error) {
	for ri := 0; ri < scan && ri < len(rows); ri++ {
		if !isHeader(rows[ri]) {
			continue
		}
		columns := make(map[string]int, len(rows[ri]))
		for ci, cell := range rows[ri] {
			name := strings.ToUpper(strings.TrimSpace(cell))
			if name == "" {
				continue
			}
			if _, dup := columns[name]; !dup {
				columns[name] = ci
			}
		}
		return ri, columns, nil
	}
	return 0, nil, ErrNoHeader
}

func isHeader(row []string) bool {
	for _, cell := range row {
		name := strings.ToUpper(strings.TrimSpace(cell))
		for _, marker := range headerMarkers {
			if name == marker {
				return true
			}
		}
	}
	return false
}

// Name returns the worksheet name.
func (s *Sheet) Name() string { return s.name }

// HeaderRow returns the 1-based row number of the header.
func (s *Sheet) HeaderRow() int { return s.headerRow + 1 }

// HasColumn reports whether the header declares the column (case-insensitive).
func (s *Sheet) HasColumn(name string) bool {
	_, ok := s.columns[strings.ToUpper(name)]
	return ok
}

// Len returns the number of data rows, blank rows included.
func (s *Sheet) Len() int { return len(s.data) }

// Rows converts every data row, numbering them from 1 in sheet order.
func (s *Sheet) Rows() []reconcile.Row {
	out := make([]reconcile.Row, 0, len(s.data))
	for i, cells := range s.data {
		out = append(out, s.row(i+1, cells))
	}
	return out
}

func (s *Sheet) row(seq int, cells []string) reconcile.Row {
	get := func(column string) string {
		idx, ok := s.columns[column]
		if !ok || idx >= len(cells) {
			return ""
		}
		v := strings.TrimSpace(cells[idx])
		if codeColumns[column] {
			v = integralText(v)
		}
		return v
	}

	return reconcile.Row{
		Seq:          seq,
		IdentityCode: get("IDCARD"),
		Honorific:    identity.CleanName(get("NAME_TITLE")),
		GivenName:    identity.CleanName(get("NAME")),
		FamilyName:   identity.CleanName(get("SURNAME")),
		HouseNo:      get("HOME_NO"),
		Home: models.Location{
			Village:     get("HOME_BAN"),
			VillageNo:   get("HOME_MOO"),
			SubDistrict: get("HOME_TAM"),
			District:    get("HOME_AMP"),
			Province:    get("HOME_PROV"),
		},
		SiteCode:    get("SPAR_CODE"),
		SubUnitCode: get("NUM_APAR"),
		SiteNo:      get("SPAR_NO"),
		SurveyNo:    get("NUM_SPAR"),
		ParkName:    get("NAME_DNP"),
		ParkCode:    get("CODE_DNP"),
		ZoneCode:    get("APAR_CODE"),
		ZoneNo:      get("APAR_NO"),
		Location: models.Location{
			Village:     get("PAR_BAN"),
			VillageNo:   get("PAR_MOO"),
			SubDistrict: get("PAR_TAM"),
			District:    get("PAR_AMP"),
			Province:    get("PAR_PROV"),
		},
		UsageText:    get("PTYPE"),
		Remark:       get("REMARK"),
		BoundaryType: get("BAN_TYPE"),
		Rai:          get("RAI"),
		Ngan:         get("NGAN"),
		SquareWa:     get("WA_SQ"),
		AreaRai:      get("AREA_RAI"),
		Perimeter:    get("PERIMETER"),
		Easting:      get("E"),
		Northing:     get("N"),
		Year:         get("YEAR"),
		TargetFID:    get("TARGET_FID"),
	}
}

// integralText rewrites whole numbers stored as floats ("12.0", "1.1017002034E+12") as plain
// digits. Anything else is returned unchanged.
func integralText(v string) string {
	if v == "" || !strings.ContainsAny(v, ".eE") {
		return v
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int64(f)) {
		return v
	}
	return strconv.FormatInt(int64(f), 10)
}

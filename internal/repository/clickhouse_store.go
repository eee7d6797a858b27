package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"SymDir/internal/domain/models"
	"SymDir/internal/domain/repository"
	pkgch "SymDir/pkg/clickhouse"
	applogger "SymDir/pkg/logger"

	"github.com/shopspring/decimal"
)

// InstrumentsDDL creates the instruments table; ReplacingMergeTree keeps the
// latest version of a row by last_updated.
func InstrumentsDDL(table string) string {
	return fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            id              String,
            trading_symbol  String,
            display_name    String,
            company_name    String,
            sector          String,
            instrument_type LowCardinality(String),
            exchange        LowCardinality(String),
            underlying      String,
            strike_price    Nullable(Decimal(18, 4)),
            option_type     LowCardinality(String),
            expiry_date     Nullable(Date),
            lot_size        Int64,
            tick_size       Decimal(18, 4),
            is_active       UInt8,
            last_updated    DateTime64(3)
        ) ENGINE = ReplacingMergeTree(last_updated)
        ORDER BY (trading_symbol, exchange, id)`, table)
}

const instrumentColumns = `id, trading_symbol, display_name, company_name, sector,
        instrument_type, exchange, underlying,
        ifNull(toString(strike_price), ''), option_type,
        ifNull(toString(expiry_date), ''), lot_size, toString(tick_size),
        is_active, last_updated`

// ClickHouseStore implements InstrumentStore on a ClickHouse table.
type ClickHouseStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewClickHouseStore creates a store reading from table (database-qualified).
func NewClickHouseStore(ch *pkgch.Client, table string) *ClickHouseStore {
	return &ClickHouseStore{db: ch.DB(), table: table, l: applogger.Nop()}
}

var _ repository.InstrumentStore = (*ClickHouseStore)(nil)

// SetLogger injects a structured logger.
func (s *ClickHouseStore) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

// Query runs one filtered, paged search against the instruments table.
func (s *ClickHouseStore) Query(ctx context.Context, q models.SearchQuery) (*models.StoreResult, error) {
	start := time.Now()
	q = q.Canonical(models.MaxSearchLimit * 10)
	b := buildSearchSQL(s.table, q)

	var total int
	if err := s.db.QueryRowContext(ctx, b.countSQL, b.countArgs...).Scan(&total); err != nil {
		s.l.Error("clickhouse instruments count error",
			applogger.String("table", s.table),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("count instruments: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, b.rowsSQL, b.rowsArgs...)
	if err != nil {
		s.l.Error("clickhouse instruments query error",
			applogger.String("table", s.table),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("query instruments: %w", err)
	}
	defer rows.Close()

	out := make([]models.ScoredInstrument, 0, q.Limit)
	for rows.Next() {
		si, err := scanInstrument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan instrument: %w", err)
		}
		out = append(out, si)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	s.l.Debug("clickhouse instruments ok",
		applogger.String("query", q.Query),
		applogger.Int("rows", len(out)),
		applogger.Int("total", total),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return &models.StoreResult{
		Instruments: out,
		Total:       total,
		HasMore:     q.Offset+len(out) < total,
	}, nil
}

// InsertBatch writes instruments in chunks of multi-row VALUES inserts.
func (s *ClickHouseStore) InsertBatch(ctx context.Context, items []models.Instrument) error {
	const chunkSize = 2000
	for start := 0; start < len(items); start += chunkSize {
		end := min(start+chunkSize, len(items))

		values := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*15)
		for i := range items[start:end] {
			it := &items[start+i]
			if it.TradingSymbol == "" {
				continue
			}
			var strike any
			if it.StrikePrice.Valid {
				strike = it.StrikePrice.Decimal.String()
			}
			var expiry any
			if !it.ExpiryDate.IsZero() {
				expiry = it.ExpiryDate
			}
			active := uint8(0)
			if it.IsActive {
				active = 1
			}
			updated := it.LastUpdated
			if updated.IsZero() {
				updated = time.Now().UTC()
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				it.ID, it.TradingSymbol, it.DisplayName, it.CompanyName, it.Sector,
				string(it.InstrumentType), string(it.Exchange), it.Underlying,
				strike, string(it.OptionType), expiry, it.LotSize, it.TickSize.String(),
				active, updated,
			)
		}
		if len(values) == 0 {
			continue
		}
		stmt := fmt.Sprintf(`INSERT INTO %s (id, trading_symbol, display_name, company_name, sector,
            instrument_type, exchange, underlying, strike_price, option_type, expiry_date,
            lot_size, tick_size, is_active, last_updated) VALUES %s`, s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
			s.l.Error("clickhouse instruments insert error",
				applogger.String("table", s.table),
				applogger.Int("rows", len(values)),
				applogger.Error(err),
			)
			return fmt.Errorf("insert instruments: %w", err)
		}
	}
	return nil
}

// Count returns the number of rows in the table, inactive ones included.
func (s *ClickHouseStore) Count(ctx context.Context) (int64, error) {
	var n uint64
	if err := s.db.QueryRowContext(ctx, "SELECT count() FROM "+s.table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count instruments: %w", err)
	}
	return int64(n), nil
}

// Health pings the database.
func (s *ClickHouseStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to the ClickHouse client.
func (s *ClickHouseStore) Close() error { return nil }

type searchSQL struct {
	rowsSQL   string
	rowsArgs  []any
	countSQL  string
	countArgs []any
}

// buildSearchSQL renders the page and count statements for a canonical query.
// With free text the rows carry a provisional tiered score; without it every
// row gets the baseline score of 1.
func buildSearchSQL(table string, q models.SearchQuery) searchSQL {
	var where []string
	var args []any

	if text := strings.TrimSpace(q.Query); text != "" {
		where = append(where, `(positionCaseInsensitiveUTF8(trading_symbol, ?) > 0
            OR positionCaseInsensitiveUTF8(display_name, ?) > 0
            OR positionCaseInsensitiveUTF8(company_name, ?) > 0)`)
		args = append(args, text, text, text)
	}
	if q.ID != "" {
		where = append(where, "id = ?")
		args = append(args, q.ID)
	}
	if q.TradingSymbol != "" {
		where = append(where, "upper(trading_symbol) = ?")
		args = append(args, q.TradingSymbol)
	}
	if q.InstrumentType != "" {
		where = append(where, "instrument_type = ?")
		args = append(args, string(q.InstrumentType))
	}
	if q.Exchange != "" {
		where = append(where, "exchange = ?")
		args = append(args, string(q.Exchange))
	}
	if q.Underlying != "" {
		where = append(where, "upper(underlying) = ?")
		args = append(args, q.Underlying)
	}
	if q.StrikeMin.Valid {
		where = append(where, "strike_price >= toDecimal64(?, 4)")
		args = append(args, q.StrikeMin.Decimal.String())
	}
	if q.StrikeMax.Valid {
		where = append(where, "strike_price <= toDecimal64(?, 4)")
		args = append(args, q.StrikeMax.Decimal.String())
	}
	if !q.ExpiryFrom.IsZero() {
		where = append(where, "expiry_date >= toDate(?)")
		args = append(args, q.ExpiryFrom.Format(models.DateLayout))
	}
	if !q.ExpiryTo.IsZero() {
		where = append(where, "expiry_date <= toDate(?)")
		args = append(args, q.ExpiryTo.Format(models.DateLayout))
	}
	if q.OptionType != "" {
		where = append(where, "option_type = ?")
		args = append(args, string(q.OptionType))
	}
	if q.IsActive != nil {
		where = append(where, "is_active = ?")
		args = append(args, boolToUInt8(*q.IsActive))
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, "\n          AND ")
	}

	score, scoreArgs := "toFloat64(1)", []any(nil)
	if text := strings.TrimSpace(q.Query); text != "" {
		upper := strings.ToUpper(text)
		score = `toFloat64(multiIf(
            upper(trading_symbol) = ?, 100,
            upper(display_name) = ?, 95,
            startsWith(upper(trading_symbol), ?), 80,
            startsWith(upper(display_name), ?), 75,
            positionCaseInsensitiveUTF8(trading_symbol, ?) > 0, 60,
            positionCaseInsensitiveUTF8(display_name, ?) > 0, 55,
            50))`
		scoreArgs = []any{upper, upper, upper, upper, text, text}
	}

	rows := fmt.Sprintf(`
        SELECT %s, %s AS provisional_score
        FROM %s FINAL
        %s
        ORDER BY %s
        LIMIT ? OFFSET ?`, instrumentColumns, score, table, whereSQL, orderClause(q))
	rowsArgs := make([]any, 0, len(scoreArgs)+len(args)+2)
	rowsArgs = append(rowsArgs, scoreArgs...)
	rowsArgs = append(rowsArgs, args...)
	rowsArgs = append(rowsArgs, q.Limit, q.Offset)

	count := fmt.Sprintf("SELECT count() FROM %s FINAL %s", table, whereSQL)

	return searchSQL{
		rowsSQL:   rows,
		rowsArgs:  rowsArgs,
		countSQL:  count,
		countArgs: args,
	}
}

func orderClause(q models.SearchQuery) string {
	dir := "ASC"
	if q.SortOrder == models.SortDesc {
		dir = "DESC"
	}
	var primary string
	switch q.SortBy {
	case models.SortByName:
		primary = "display_name " + dir
	case models.SortBySymbol:
		primary = "trading_symbol " + dir
	case models.SortByExpiry:
		primary = "expiry_date " + dir + " NULLS LAST"
	case models.SortByStrike:
		primary = "strike_price " + dir + " NULLS LAST"
	default:
		primary = "provisional_score " + dir
	}
	return primary + ", trading_symbol ASC, exchange ASC, expiry_date ASC NULLS LAST, strike_price ASC NULLS LAST, option_type ASC, id ASC"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstrument(r rowScanner) (models.ScoredInstrument, error) {
	var (
		si                   models.ScoredInstrument
		it, ex, ot           string
		strike, expiry, tick string
		active               uint8
	)
	if err := r.Scan(
		&si.ID, &si.TradingSymbol, &si.DisplayName, &si.CompanyName, &si.Sector,
		&it, &ex, &si.Underlying,
		&strike, &ot,
		&expiry, &si.LotSize, &tick,
		&active, &si.LastUpdated,
		&si.RelevanceScore,
	); err != nil {
		return si, err
	}
	si.InstrumentType = models.InstrumentType(it)
	si.Exchange = models.Exchange(ex)
	si.OptionType = models.OptionType(ot)
	si.IsActive = active == 1

	if strike != "" {
		d, err := decimal.NewFromString(strike)
		if err != nil {
			return si, fmt.Errorf("strike %q: %w", strike, err)
		}
		si.StrikePrice = decimal.NewNullDecimal(d)
	}
	if tick != "" {
		d, err := decimal.NewFromString(tick)
		if err != nil {
			return si, fmt.Errorf("tick %q: %w", tick, err)
		}
		si.TickSize = d
	}
	if expiry != "" {
		d, err := models.ParseDate(expiry)
		if err != nil {
			return si, fmt.Errorf("expiry %q: %w", expiry, err)
		}
		si.ExpiryDate = d
	}
	return si, nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

package postgres

// SQL queries for meter, market and sensor data.

const (
	// queryEnergyIntervals fetches quarter-hour meter intervals in a
	// half-open range, oldest first.
	queryEnergyIntervals = `
		SELECT
			bucket_start, consumption_rate1, consumption_rate2,
			injection_rate1, injection_rate2
		FROM meter_intervals
		WHERE bucket_start >= $1
		  AND bucket_start < $2
		ORDER BY bucket_start ASC
	`

	// queryInvoicePeak computes the billable peak for the 12 months ending
	// at the given month. Months are compared as year*12+month so the
	// rolling window crosses year boundaries. The 2.5 kW floor is the
	// regulatory minimum of the capacity tariff.
	queryInvoicePeak = `
		SELECT GREATEST(COALESCE(MAX(peak), 0), 2.5)
		FROM monthly_peaks
		WHERE year * 12 + month BETWEEN $1 - 11 AND $1
	`

	queryCurrentMonthPeak = `
		SELECT COALESCE(MAX(peak), 0)
		FROM monthly_peaks
		WHERE year = $1 AND month = $2
	`

	// queryMonthlyDayAhead averages the quarter-hour prices of one month.
	// AVG over zero rows is NULL, which scans as no-data.
	queryMonthlyDayAhead = `
		SELECT AVG(price)
		FROM day_ahead_prices
		WHERE ts >= $1
		  AND ts < $2
	`

	queryDayAheadAt = `
		SELECT price
		FROM day_ahead_prices
		WHERE ts = $1
	`

	queryLastDayAheadTimestamp = `
		SELECT MAX(ts)
		FROM day_ahead_prices
	`

	// querySaveDayAheadPrice upserts one quarter-hour price. Re-ingesting
	// a day replaces its prices, so corrected publications win.
	querySaveDayAheadPrice = `
		INSERT INTO day_ahead_prices (ts, price)
		VALUES ($1, $2)
		ON CONFLICT (ts) DO UPDATE SET price = EXCLUDED.price
	`

	queryLatestReading = `
		SELECT ts, value, unit
		FROM power_readings
		WHERE metric = $1
		ORDER BY ts DESC
		LIMIT 1
	`

	queryCounterSamples = `
		SELECT ts, value, unit
		FROM energy_counters
		WHERE metric = $1
		  AND ts >= $2
		  AND ts < $3
		ORDER BY ts ASC
	`
)

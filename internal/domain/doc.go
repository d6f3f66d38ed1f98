// Package domain models station weather history and the short-horizon
// forecasts derived from it.
//
// # Data Source
//
// Hourly observations come from the Meteostat station archive. The meteostat
// adapter resolves the station nearest to a geocoded city and fetches hourly
// rows for the seven days ending at the station's last hourly record. Every
// hour is reported, but individual measurements may be null.
//
// # Conventions
//
// Missing values:
//
//	Null measurements are replaced with 0 before they reach this package.
//	Aggregation never skips them, so daily precipitation sums and temperature
//	extremes include the zero rows. This biases totals low on sparse stations
//	and is the defined behavior.
//
// Units:
//
//	temp, dwpt  °C
//	rhum        %
//	prcp, snow  mm
//	wdir        degrees
//	wspd, wpgt  km/h
//	pres        hPa
//	tsun        minutes
//	coco        Meteostat condition code (hourly input only)
//
// Daily aggregation:
//
//	Rows are grouped by UTC calendar date. temp_max and temp_min are the max
//	and min hourly temperature (the first occurrence wins ties), prcp is the
//	sum of hourly precipitation. One row per calendar day.
//
// Date feature:
//
//	The "date" column is the proleptic Gregorian ordinal of the day,
//	0001-01-01 = 1, matching the encoding the models were trained on.
//
// # Feature Sets
//
// Column order is fixed per feature set and must match the order used when a
// window's scalers were fit:
//
//	temperature:   temp_max, temp_min, lat, lon, date   (7 days → 35 values)
//	precipitation: lat, lon, prcp, date                 (7 days → 28 values)
//
// # Condition Codes
//
// The forecast condition taxonomy is a fixed 0–9 scale produced by
// [ClassifyCondition] from predicted precipitation and temperatures:
//
//	0 Clear  1 Partly Cloudy  2 Cloudy  3 Rain  4 Heavy Rain
//	5 Snow   6 Thunderstorm   7 Fog     8 Extreme Heat  9 Extreme Cold
//
// Thunderstorm is part of the taxonomy consumed downstream but no rule emits it.
package domain

// Package dataprocessing turns normalized XScript logs into records and
// windowed occurrence summaries.
//
// # Stages
//
//  1. SanitizeLine / SanitizeFile: space-delimited lines become
//     comma-delimited, trailing delimiters and blank lines are removed.
//  2. ParseSourceName: <YYYYMMDD>_<script>[-suffix].<ext> filenames yield
//     the file date and the script that produced it.
//  3. ParseFile: headerless rows become Ticker/Name/Date records tagged
//     with the script.
//  4. Concat and Summation: records from all files are merged and counted
//     per (Ticker, Name) over lookback windows anchored on the latest
//     filename date.
//
// # Usage
//
//	src, err := dataprocessing.ParseSourceName(path, dataprocessing.DefaultSuffixTokens)
//	set, err := dataprocessing.ParseFile(fixedPath, src.Script)
//	all := dataprocessing.Concat(sets...)
//	agg := dataprocessing.Summation(all, dateLast, 5)
//
// Malformed dates and filenames surface as typed errors from
// internal/errors so callers can match them with errors.Is.
package dataprocessing

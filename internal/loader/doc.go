// Package loader reads tables from delimited text, Excel workbooks, Parquet
// files and Arrow records.
//
// Column kinds are inferred: a column whose every non-missing cell parses as
// a number becomes numeric, anything else text. With StringsAsFactors set,
// text columns become factors. Their level order is chosen explicitly through
// Options.LevelOrder instead of depending on whichever reader produced them.
package loader

// Package table holds the in-memory tabular data model used by the aggregator:
// typed scalar values, factor level sets, columns, rows and row records.
//
// # Values
//
// A Value is a number, a text string, or a factor label drawn from a Levels
// set. Factor equality is label identity: the ordinal position of the label in
// its level set never takes part in comparison or hashing, so two tables
// loaded with differently ordered levels still group identically.
//
//	continents := table.MustLevels("Africa", "Americas", "Asia")
//	v := continents.MustValue("Asia")
//	v.Equal(table.MustLevels("Asia").MustValue("Asia")) // true
//
// # Tables
//
// A Table validates every appended row against its columns. Select and Filter
// return sub-tables that share rows with the parent and preserve row order.
package table

// package models defines the data model for the batch cycle: the raw
// snapshot document captured from the catalog API and the flat tabular
// records derived from it.
package models

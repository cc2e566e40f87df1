// Package assessment turns a single hive inspection, the hive's static
// context and its score history into a scored, risk-ranked analysis with
// forecasts and a next inspection date.
//
// Every function in the package is pure: the caller supplies the current
// time and all data, and identical inputs always yield identical output.
// Analyzer.Analyze is the only entry point that recovers from internal
// failures; the component functions report them as errors.
package assessment

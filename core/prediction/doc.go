// Package prediction builds price forecasts for evaluations that are run
// without an externally supplied forecast.
package prediction

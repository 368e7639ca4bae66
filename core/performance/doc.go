// Package performance measures how much revenue a forecast-driven schedule
// captures compared with perfect foresight.
//
// Each day of the horizon is solved three times from the same starting
// storage: on the forecast (programmed), on the realised prices (hindsight)
// and as a constant baseline (stable). All three are valued at the realised
// prices. The programmed end storage becomes the next day's start.
package performance

// package services contains external API clients.
//
// The extractor depends on the [Catalog] interface; [SpotifyService] is the
// production implementation backed by the Spotify Web API with a
// client-credentials token source and a request rate limiter.
package services

// Package ratelimit paces requests to the observation API and the image host.
//
// The pipeline takes one token before every observation fetch and every image
// download. The default of one request per second keeps the tool a polite
// client of the public API.
package ratelimit

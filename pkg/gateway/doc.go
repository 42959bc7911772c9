// Package gateway retrieves collection images from direct URLs and from IPFS mirrors.
//
// References containing /ipfs/ (or using the ipfs:// scheme) are content-addressed.
// The Resolver asks each configured mirror for https://{host}/{cid} in order and
// returns the first 200 response; every attempt has its own timeout, so one slow
// mirror only delays the next one. If all mirrors fail the result is an
// errors.ImageFetchError with kind exhausted.
//
// Any other reference is fetched with a single GET. Timeouts and connection
// failures are reported with kind timeout or network; a non-200 status is
// reported as network with the status code attached.
package gateway

// Package speech wraps the recognition service that turns extracted audio
// into transcript text. Short audio goes through the synchronous endpoint;
// longer audio uses the long-running operation API, polled with exponential
// backoff under an overall deadline.
package speech

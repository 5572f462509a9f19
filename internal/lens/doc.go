// Package lens scans images for text with the Google Lens web endpoints.
//
// A Client submits either an image URL or the encoded image itself, walks the
// service's cookie-consent gate when it appears, and decodes the results page
// into a Result: the detected language and the text segments with their
// bounding boxes.
//
// # Consent Gate
//
// Some regions answer the first request with a 302 to a consent page. The
// client then posts the consent form, and on a 303 re-sends the original
// request once. A second 302 fails with ErrDoubleRedirect; there is no
// further retry. Cookies from every response are kept in the client's jar and
// sent with later requests, so a consented session stays consented.
//
// The client waits Config.ConsentDelay (500ms by default) after the 302
// arrives before posting consent, and again after the 303 before the retry.
// Requests are also paced: consecutive requests from one Client start at
// least ConsentDelay apart.
//
// # Bounding Boxes
//
// Boxes are expressed as fractions of the image size, centered:
// [centerX, centerY, width, height]. PixelRect converts them to a pixel
// rectangle whose (X, Y) is the top-left corner. Pixel values are rounded
// with math.Round, so halves round away from zero.
//
// # Errors
//
// Every failure is reported as one error, never as a partial Result. Use
// errors.Is with the Err* sentinels and errors.As with *ResponseError or
// *TransportError. A ResponseError carries the status, headers and body of
// the response the scan failed on.
package lens

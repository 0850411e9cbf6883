// Package scanner crawls pages and inspects their main content region
// for links to the configured target URLs. It also offers a keyword
// mode that surfaces sentences where a link to a target could be added.
package scanner

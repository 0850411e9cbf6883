// Package sitemap discovers page URLs through WordPress sitemap files.
// It parses sitemap index documents (wp-sitemap.xml) and the child
// sitemaps they reference, following the sitemaps.org 0.9 protocol.
package sitemap

// Package pipeline provides a framework for executing crawl steps in
// sequence.
//
// A crawl runs through multiple stages: sitemap discovery, page URL
// collection, and page scanning. Each stage is implemented as a Step
// that receives the current report and can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function
// calls because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running crawls
// 4. Commands can compose only the steps they need (suggest reuses the
//    discover and collect steps without the scan step)
package pipeline

// Package crawler discovers the node hierarchy of a Lark wiki space.
//
// # Architecture
//
// The Crawler starts from the implicit space root and, for every node,
// requests pages of children until the API reports no more pages. Each
// discovered child is crawled in its own goroutine (errgroup per node), so
// sibling subtrees proceed in parallel while the pages of one node are
// fetched strictly in sequence.
//
// # Ordering
//
// A node's children are appended in listing order by the goroutine that
// paginates the node, and each child goroutine only fills in its own
// child's subtree. After errgroup.Wait the tree is therefore identical to
// the one a sequential depth-first walk would produce, whatever the
// completion order was. model.Tree.Nodes flattens it into the discovery
// sequence used by the later phases.
//
// # Limits
//
// A weighted semaphore caps the listing calls in flight across the whole
// tree. It is held only around a single call, never while waiting for
// children, so deep trees cannot deadlock on it.
//
// # Usage
//
//	c := crawler.New(client, crawler.WithMaxConcurrency(4))
//	tree, err := c.Crawl(ctx, spaceID)
//	nodes := tree.Nodes()
package crawler

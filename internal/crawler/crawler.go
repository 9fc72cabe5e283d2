package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nao1215/wikibinder/internal/backoff"
	"github.com/nao1215/wikibinder/internal/lark"
	"github.com/nao1215/wikibinder/internal/model"
)

// DefaultMaxConcurrency is the default number of listing requests in flight.
const DefaultMaxConcurrency = 4

// Lister lists one page of a wiki node's children.
// *lark.Client satisfies it.
type Lister interface {
	ListChildren(ctx context.Context, spaceID, parentToken, pageToken string) (*lark.NodePage, error)
}

// Crawler discovers the node hierarchy of a wiki space.
//
// Sibling subtrees are crawled concurrently while the pages of a single
// node are fetched one after another, because each continuation token
// comes from the previous response. Children are attached in listing
// order, so the resulting tree does not depend on scheduling.
type Crawler struct {
	// lister performs the listing calls.
	lister Lister

	// policy guards every listing call.
	policy backoff.Policy

	// sem caps the number of listing calls in flight across the whole tree.
	sem *semaphore.Weighted

	// maxDepth is the deepest level allowed. 0 means unlimited.
	maxDepth int

	logger *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithPolicy sets the retry policy for listing calls.
func WithPolicy(p backoff.Policy) Option {
	return func(c *Crawler) {
		c.policy = p
	}
}

// WithMaxConcurrency caps the listing calls in flight.
func WithMaxConcurrency(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithMaxDepth makes Crawl fail when the space is nested deeper than
// depth levels. 0 disables the check.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) {
		c.maxDepth = depth
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// New creates a Crawler.
func New(lister Lister, opts ...Option) *Crawler {
	c := &Crawler{
		lister: lister,
		policy: backoff.DefaultPolicy(),
		sem:    semaphore.NewWeighted(DefaultMaxConcurrency),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.policy.Logger == nil {
		c.policy = c.policy.WithLogger(c.logger)
	}

	return c
}

// Crawl discovers every node of spaceID. Any listing failure aborts the
// whole crawl; no partial tree is returned.
func (c *Crawler) Crawl(ctx context.Context, spaceID string) (*model.Tree, error) {
	if spaceID == "" {
		return nil, ErrEmptySpaceID
	}

	tree := model.NewTree(spaceID)
	children, err := c.crawlChildren(ctx, spaceID, tree.Root)
	if err != nil {
		return nil, err
	}
	tree.Root.Children = children
	tree.AssignIndices()

	c.logger.Info("crawl completed", "space_id", spaceID, "nodes", tree.Len())
	return tree, nil
}

// crawlChildren paginates through the children of parent and crawls each
// child's subtree in its own goroutine. It returns once every subtree
// has been discovered.
func (c *Crawler) crawlChildren(ctx context.Context, spaceID string, parent *model.TreeNode) ([]*model.TreeNode, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	var children []*model.TreeNode
	pageToken := ""
	for {
		page, err := c.listPage(gctx, spaceID, parent, pageToken)
		if err != nil {
			cancel()
			// Subtrees stopped by cancel report context errors; only an
			// earlier failure of their own outranks err.
			if werr := g.Wait(); werr != nil && !isContextErr(werr) {
				return nil, werr
			}
			return nil, err
		}

		if len(page.Items) > 0 && c.maxDepth > 0 && parent.Level >= c.maxDepth {
			cancel()
			_ = g.Wait()
			return nil, fmt.Errorf("%w: %q is at level %d", ErrMaxDepthExceeded, parent.Title, parent.Level)
		}

		for _, item := range page.Items {
			child := model.NewTreeNode(parent, item.Title, item.ObjToken, model.ObjectType(item.ObjType), item.NodeToken)
			children = append(children, child)

			c.logger.Debug("node discovered",
				"title", child.Title,
				"node_token", child.NodeToken,
				"obj_type", child.ObjType,
				"level", child.Level,
			)

			g.Go(func() error {
				grandchildren, err := c.crawlChildren(gctx, spaceID, child)
				if err != nil {
					return err
				}
				child.Children = grandchildren
				return nil
			})
		}

		if !page.HasMore || page.PageToken == "" {
			break
		}
		pageToken = page.PageToken
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return children, nil
}

// listPage fetches one page under the backoff policy, holding a semaphore
// slot only for the duration of each call.
func (c *Crawler) listPage(ctx context.Context, spaceID string, parent *model.TreeNode, pageToken string) (*lark.NodePage, error) {
	op := "list children of " + describe(parent)
	return backoff.Do(ctx, c.policy, op, func(ctx context.Context) (*lark.NodePage, error) {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer c.sem.Release(1)

		page, err := c.lister.ListChildren(ctx, spaceID, parent.NodeToken, pageToken)
		if err != nil {
			return nil, err
		}
		if page == nil {
			return &lark.NodePage{}, nil
		}
		return page, nil
	})
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func describe(n *model.TreeNode) string {
	if n.IsRoot() {
		return "space root"
	}
	return fmt.Sprintf("%q", n.Title)
}

package lock

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const zkLockPrefix = "lock-"

// ZookeeperLocker implements the ephemeral sequential node recipe: the lowest
// sequence number under /<root>/vehicle-<id> holds the lock, everyone else
// watches their predecessor. Nodes vanish with the session, so a crashed
// holder cannot keep a vehicle blocked.
type ZookeeperLocker struct {
	conn   *zk.Conn
	root   string
	acl    []zk.ACL
	logger *zap.Logger
}

func NewZookeeperLocker(conn *zk.Conn, root string, logger *zap.Logger) *ZookeeperLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZookeeperLocker{conn: conn, root: root, acl: zk.WorldACL(zk.PermAll), logger: logger}
}

func (l *ZookeeperLocker) Lock(ctx context.Context, vehicleID int64) (Unlock, error) {
	dir := path.Join(l.root, fmt.Sprintf("vehicle-%d", vehicleID))
	if err := l.ensurePath(dir); err != nil {
		return nil, err
	}

	node, err := l.conn.CreateProtectedEphemeralSequential(dir+"/"+zkLockPrefix, nil, l.acl)
	if err != nil {
		return nil, errors.Wrap(err, "create sequential node")
	}
	own := path.Base(node)

	if err := l.waitTurn(ctx, dir, own); err != nil {
		l.delete(node)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.delete(node) })
	}, nil
}

func (l *ZookeeperLocker) waitTurn(ctx context.Context, dir, own string) error {
	for {
		children, _, err := l.conn.Children(dir)
		if err != nil {
			return errors.Wrap(err, "list lock nodes")
		}
		prev, ok := predecessor(children, own)
		if !ok {
			return nil
		}

		exists, _, events, err := l.conn.ExistsW(dir + "/" + prev)
		if err != nil {
			return errors.Wrap(err, "watch previous node")
		}
		if !exists {
			continue
		}

		select {
		case <-events:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *ZookeeperLocker) delete(node string) {
	if err := l.conn.Delete(node, -1); err != nil && !errors.Is(err, zk.ErrNoNode) {
		l.logger.Warn("failed to delete lock node", zap.String("node", node), zap.Error(err))
	}
}

// ensurePath creates every missing persistent parent of p.
func (l *ZookeeperLocker) ensurePath(p string) error {
	current := ""
	for _, part := range strings.Split(strings.Trim(p, "/"), "/") {
		current += "/" + part
		exists, _, err := l.conn.Exists(current)
		if err != nil {
			return errors.Wrapf(err, "check %s", current)
		}
		if exists {
			continue
		}
		if _, err := l.conn.Create(current, nil, 0, l.acl); err != nil && !errors.Is(err, zk.ErrNodeExists) {
			return errors.Wrapf(err, "create %s", current)
		}
	}
	return nil
}

// sequenceOf extracts the 10 digit counter zookeeper appends to sequential nodes.
// Protected nodes carry a random prefix, so names must not be compared directly.
func sequenceOf(node string) string {
	if len(node) < 10 {
		return node
	}
	return node[len(node)-10:]
}

// predecessor returns the node immediately before own in sequence order, or
// false when own is first and therefore holds the lock.
func predecessor(children []string, own string) (string, bool) {
	sorted := make([]string, 0, len(children))
	for _, c := range children {
		if strings.Contains(c, zkLockPrefix) {
			sorted = append(sorted, c)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sequenceOf(sorted[i]) < sequenceOf(sorted[j]) })

	ownSeq := sequenceOf(own)
	prev := ""
	for _, c := range sorted {
		if sequenceOf(c) >= ownSeq {
			break
		}
		prev = c
	}
	return prev, prev != ""
}

var _ Locker = (*ZookeeperLocker)(nil)

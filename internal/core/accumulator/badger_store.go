package accumulator

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	badgerdb "github.com/dgraph-io/badger/v3"

	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkid/pkg/types"
)

// 键布局：
//   - 节点：'n' | level(1B) | index(4B 大端)
//   - 元数据：'m'
const (
	nodePrefix byte = 'n'
	metaKey    byte = 'm'

	// batchThreshold 超过该数量的写入改用 WriteBatch（恢复快照时整树写入）
	batchThreshold = 1024
)

// BadgerNodeStore 基于 BadgerDB 的持久化节点存储
//
// 🎯 **职责**：进程重启后恢复累加器状态
//
// 📋 **实现说明**：
//   - 单次 Add/Remove 的节点与元数据在同一个事务内提交
//   - 大批量写入（快照恢复）使用 WriteBatch，随后写元数据
//   - Reset 通过 DropPrefix 清空节点与元数据
type BadgerNodeStore struct {
	db     *badgerdb.DB
	logger logInterface.Logger
}

// 确保实现接口
var _ NodeStore = (*BadgerNodeStore)(nil)

// OpenBadgerNodeStore 打开磁盘存储；path 为空时使用内存模式
func OpenBadgerNodeStore(path string, logger logInterface.Logger) (*BadgerNodeStore, error) {
	var opts badgerdb.Options
	if path == "" {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0700); err != nil {
			return nil, fmt.Errorf("无法创建累加器数据目录: %w", err)
		}
		opts = badgerdb.DefaultOptions(path)
		// 累加器数据量小，缩小 value log 与缓存
		opts.ValueLogFileSize = 64 << 20
		opts.BlockCacheSize = 16 << 20
		opts.IndexCacheSize = 16 << 20
		opts.NumMemtables = 2
		opts.SyncWrites = true
	}
	opts.Logger = newBadgerLogger(logger)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("无法打开累加器 BadgerDB: %w", err)
	}
	if logger != nil {
		logger.Infof("累加器 BadgerDB 已打开: path=%q inMemory=%t", path, path == "")
	}
	return &BadgerNodeStore{db: db, logger: logger}, nil
}

func nodeKey(level, index int) []byte {
	k := make([]byte, 6)
	k[0] = nodePrefix
	k[1] = byte(level)
	binary.BigEndian.PutUint32(k[2:], uint32(index))
	return k
}

// GetNode 读取节点
func (s *BadgerNodeStore) GetNode(level, index int) (string, bool, error) {
	var value string
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(nodeKey(level, index))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Commit 写入节点与元数据
func (s *BadgerNodeStore) Commit(updates []NodeUpdate, meta StoreMeta) error {
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	if len(updates) > batchThreshold {
		wb := s.db.NewWriteBatch()
		defer wb.Cancel()
		for _, u := range updates {
			if err := wb.Set(nodeKey(u.Level, u.Index), []byte(u.Value)); err != nil {
				return err
			}
		}
		if err := wb.Flush(); err != nil {
			return err
		}
		return s.db.Update(func(txn *badgerdb.Txn) error {
			return txn.Set([]byte{metaKey}, metaBytes)
		})
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		for _, u := range updates {
			if err := txn.Set(nodeKey(u.Level, u.Index), []byte(u.Value)); err != nil {
				return err
			}
		}
		return txn.Set([]byte{metaKey}, metaBytes)
	})
}

// LoadMeta 读取元数据
func (s *BadgerNodeStore) LoadMeta() (StoreMeta, bool, error) {
	var meta StoreMeta
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte{metaKey})
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return StoreMeta{}, false, nil
	}
	if err != nil {
		return StoreMeta{}, false, err
	}
	return meta, true, nil
}

// Leaves 遍历叶子层
func (s *BadgerNodeStore) Leaves() ([]types.LeafEntry, error) {
	var out []types.LeafEntry
	prefix := []byte{nodePrefix, 0}
	err := s.db.View(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.Key()
			if len(key) != 6 {
				continue
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if v := string(val); v != "" && v != ZeroLeaf {
				out = append(out, types.LeafEntry{
					Index:      int(binary.BigEndian.Uint32(key[2:])),
					Commitment: v,
				})
			}
		}
		return nil
	})
	return out, err
}

// Reset 清空节点与元数据
func (s *BadgerNodeStore) Reset() error {
	return s.db.DropPrefix([]byte{nodePrefix}, []byte{metaKey})
}

// Close 关闭数据库
func (s *BadgerNodeStore) Close() error {
	return s.db.Close()
}

// badgerLogger 将 badger 日志转发到服务日志
type badgerLogger struct {
	logger logInterface.Logger
}

func newBadgerLogger(logger logInterface.Logger) badgerdb.Logger {
	if logger == nil {
		return nil
	}
	return &badgerLogger{logger: logger}
}

// Errorf 输出错误日志
func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf("[BadgerDB] "+format, args...)
}

// Warningf 输出警告日志
func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf("[BadgerDB] "+format, args...)
}

// Infof badger 信息日志降级为调试
func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf("[BadgerDB] "+format, args...)
}

// Debugf 输出调试日志
func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf("[BadgerDB] "+format, args...)
}

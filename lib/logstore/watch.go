// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package logstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Watch reports writes to the log through inotify, so a follower can
// sleep until there is something new to Tail instead of polling on a
// timer. The returned channel receives a value (coalesced: capacity 1)
// whenever the log is created, written, or moved into place. It is
// closed when ctx is cancelled or the watch fails.
//
// The directory is watched rather than the file so that a log which
// does not exist yet is still picked up when the first line arrives.
// The directory must exist.
//
// Callers should Tail once AFTER calling Watch, not before: a write
// that lands between an earlier Tail and the watch setup would
// otherwise be missed until the next write.
func (s *Store) Watch(ctx context.Context) (<-chan struct{}, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("inotify_init1: %w", err)
	}

	directory := filepath.Dir(s.path)
	_, err = unix.InotifyAddWatch(fd, directory, unix.IN_MODIFY|unix.IN_CREATE|unix.IN_MOVED_TO)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("inotify_add_watch on %s: %w", directory, err)
	}

	changes := make(chan struct{}, 1)
	go watchLoop(ctx, fd, filepath.Base(s.path), changes)
	return changes, nil
}

// watchLoop polls the inotify fd with a 100ms timeout so it stays
// responsive to cancellation, and closes both the fd and the channel
// on exit.
func watchLoop(ctx context.Context, fd int, filename string, changes chan<- struct{}) {
	defer close(changes)
	defer unix.Close(fd)

	buffer := make([]byte, 4096)
	for {
		if ctx.Err() != nil {
			return
		}

		descriptors := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		count, err := unix.Poll(descriptors, 100)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		if count == 0 {
			continue
		}

		bytesRead, err := unix.Read(fd, buffer)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return
		}

		if eventsMention(buffer[:bytesRead], filename) {
			select {
			case changes <- struct{}{}:
			default:
			}
		}
	}
}

// eventsMention scans a buffer of raw inotify events for one whose name
// matches filename.
//
// Event layout (inotify(7)):
//
//	struct inotify_event {
//	    int32_t  wd;     // offset 0
//	    uint32_t mask;   // offset 4
//	    uint32_t cookie; // offset 8
//	    uint32_t len;    // offset 12
//	    char     name[]; // offset 16, null padded
//	};
func eventsMention(buffer []byte, filename string) bool {
	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buffer) {
		nameLength := int(binary.NativeEndian.Uint32(buffer[offset+12 : offset+16]))
		eventSize := unix.SizeofInotifyEvent + nameLength
		if offset+eventSize > len(buffer) {
			break
		}
		if nameLength > 0 {
			name := buffer[offset+unix.SizeofInotifyEvent : offset+eventSize]
			for i, b := range name {
				if b == 0 {
					name = name[:i]
					break
				}
			}
			if string(name) == filename {
				return true
			}
		}
		offset += eventSize
	}
	return false
}

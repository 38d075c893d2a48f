// Package task defines the tracked task model, creation and edit rules, and
// validation of persisted task collections.
//
// A task collection is persisted as a JSON array under the todoApp_tasks key,
// most recent first:
//
//	[
//	  {
//	    "id": "3f1c...",
//	    "text": "Ship release notes #work",
//	    "completed": false,
//	    "date": "2024-05-02",
//	    "time": "17:00",
//	    "priority": "high",
//	    "category": "work",
//	    "subtasks": [{"id": "9a2e...", "text": "Draft", "completed": true}],
//	    "tags": ["work"],
//	    "createdAt": "2024-05-01T09:12:00Z",
//	    "completedAt": null,
//	    "estimatedTime": 30
//	  }
//	]
//
// # Validation
//
// Collections are checked element by element against an embedded JSON Schema
// (draft 2020-12). Invalid elements are reported with a dotted path such as
// "[3].priority" and can be dropped by the caller without losing the rest of
// the collection.
//
// # Priorities
//
//   - "urgent": rank 4
//   - "high": rank 3
//   - "medium": rank 2 (default)
//   - "low": rank 1
//
// # Invariants
//
//   - Text is trimmed and never empty.
//   - CompletedAt is set if and only if Completed is true.
//   - Tags are re-extracted from Text whenever Text changes.
package task

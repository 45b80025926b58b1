// Package querykey defines the tuple keys that identify cached remote queries.
//
// A key is an ordered list of elements: the resource name followed by its
// parameters. Keys compare by value and form a prefix hierarchy, so
// ("subscriptions") is a prefix of ("subscriptions", "byClass", "7").
package querykey

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// separator used for map identity; it cannot appear in elements produced by New.
const separator = "\x1f"

// Key is an ordered query tuple.
type Key []string

// New builds a key from arbitrary elements. Integers are rendered in base 10.
func New(parts ...any) Key {
	key := make(Key, 0, len(parts))
	for _, part := range parts {
		key = append(key, element(part))
	}
	return key
}

// Parse splits the slash separated form produced by String.
func Parse(raw string) Key {
	raw = strings.Trim(strings.TrimSpace(raw), "/")
	if raw == "" {
		return nil
	}
	return Key(strings.Split(raw, "/"))
}

func element(part any) string {
	var s string
	switch v := part.(type) {
	case string:
		s = v
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case int32:
		s = strconv.FormatInt(int64(v), 10)
	case uint64:
		s = strconv.FormatUint(v, 10)
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}
	return strings.ReplaceAll(s, separator, "")
}

// String renders the key in its namespace form, e.g. "studyClasses/byCourse/1".
func (k Key) String() string {
	return strings.Join(k, "/")
}

// ID returns a collision-free identity for use as a map key.
func (k Key) ID() string {
	return strings.Join(k, separator)
}

// Equal reports element-wise equality.
func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether k starts with every element of prefix.
// An empty prefix matches nothing.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) == 0 || len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Resource returns the leading element.
func (k Key) Resource() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}

// Resource names of the query namespace.
const (
	ResourceCourses                 = "courses"
	ResourceStudyClasses            = "studyClasses"
	ResourceProfessors              = "professors"
	ResourceStudents                = "students"
	ResourceSubscriptions           = "subscriptions"
	ResourceStudentsBySubscriptions = "studentsBySubscriptions"

	byCourse = "byCourse"
	byClass  = "byClass"
)

func Courses() Key { return New(ResourceCourses) }

func Course(id int64) Key { return New(ResourceCourses, id) }

func StudyClasses() Key { return New(ResourceStudyClasses) }

func StudyClass(id int64) Key { return New(ResourceStudyClasses, id) }

func StudyClassesByCourse(courseID int64) Key {
	return New(ResourceStudyClasses, byCourse, courseID)
}

func Professors() Key { return New(ResourceProfessors) }

func Professor(id int64) Key { return New(ResourceProfessors, id) }

func Students() Key { return New(ResourceStudents) }

func Student(id int64) Key { return New(ResourceStudents, id) }

func Subscriptions() Key { return New(ResourceSubscriptions) }

// SubscriptionsByClassAll is the prefix of every per-class subscription list.
func SubscriptionsByClassAll() Key { return New(ResourceSubscriptions, byClass) }

func SubscriptionsByClass(studyClassID int64) Key {
	return New(ResourceSubscriptions, byClass, studyClassID)
}

// StudentsBySubscriptionsAll is the prefix of every resolved roster key.
func StudentsBySubscriptionsAll() Key {
	return New(ResourceStudentsBySubscriptions)
}

// StudentsBySubscriptions keys a resolved roster by its subscription ids, sorted so
// that the same set always produces the same key.
func StudentsBySubscriptions(subscriptionIDs []int64) Key {
	ids := append([]int64(nil), subscriptionIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return New(ResourceStudentsBySubscriptions, strings.Join(parts, ","))
}

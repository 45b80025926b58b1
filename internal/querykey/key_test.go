package querykey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyEquality(t *testing.T) {
	assert.True(t, New("studyClasses", "byCourse", 1).Equal(StudyClassesByCourse(1)))
	assert.True(t, New("studyClasses", "byCourse", int64(1)).Equal(New("studyClasses", "byCourse", "1")))
	assert.False(t, StudyClassesByCourse(1).Equal(StudyClassesByCourse(2)))
	assert.False(t, StudyClasses().Equal(StudyClassesByCourse(1)))
}

func TestHasPrefix(t *testing.T) {
	assert.True(t, SubscriptionsByClass(7).HasPrefix(Subscriptions()))
	assert.True(t, SubscriptionsByClass(7).HasPrefix(SubscriptionsByClass(7)))
	assert.False(t, Subscriptions().HasPrefix(SubscriptionsByClass(7)), "a longer key is never a prefix")
	assert.False(t, SubscriptionsByClass(7).HasPrefix(SubscriptionsByClass(70)))
	assert.False(t, Course(1).HasPrefix(nil))
}

func TestNamespaceStrings(t *testing.T) {
	cases := map[string]Key{
		"courses":                        Courses(),
		"courses/3":                      Course(3),
		"studyClasses":                   StudyClasses(),
		"studyClasses/4":                 StudyClass(4),
		"studyClasses/byCourse/1":        StudyClassesByCourse(1),
		"professors/2":                   Professor(2),
		"students/9":                     Student(9),
		"subscriptions/byClass/4":        SubscriptionsByClass(4),
		"studentsBySubscriptions/1,5,12": StudentsBySubscriptions([]int64{12, 1, 5}),
		"studentsBySubscriptions/":       StudentsBySubscriptions(nil),
	}
	for want, key := range cases {
		assert.Equal(t, want, key.String())
	}
}

func TestStudentsBySubscriptionsDoesNotMutateInput(t *testing.T) {
	ids := []int64{3, 1, 2}
	StudentsBySubscriptions(ids)
	assert.Equal(t, []int64{3, 1, 2}, ids)
}

func TestParseRoundTrip(t *testing.T) {
	key := StudyClassesByCourse(11)
	assert.True(t, Parse("/"+key.String()+"/").Equal(key))
	assert.Nil(t, Parse("  "))
}

func TestIDIsCollisionFree(t *testing.T) {
	a := New("a/b", "c")
	b := New("a", "b/c")
	assert.Equal(t, a.String(), b.String())
	assert.NotEqual(t, a.ID(), b.ID())
}

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCohortPatterns(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Registrant
	}{
		{
			name: "joined triple",
			text: "IoT A 2024",
			want: Registrant{UserClass: "IoT", UserSection: "A", UserYear: "2024"},
		},
		{
			name: "joined triple case insensitive",
			text: "iot b 2025",
			want: Registrant{UserClass: "IoT", UserSection: "B", UserYear: "2025"},
		},
		{
			name: "comma triple",
			text: "Class: Cyber, A, 2023",
			want: Registrant{UserClass: "Cyber", UserSection: "A", UserYear: "2023"},
		},
		{
			name: "triple embedded in details",
			text: "john@nit.ac.in, 9876543210, AIDS B 2026",
			want: Registrant{UserClass: "AIDS", UserSection: "B", UserYear: "2026"},
		},
		{
			name: "fallback scan partial class only",
			text: "I am in IoT, not sure about the rest",
			want: Registrant{UserClass: "IoT"},
		},
		{
			name: "fallback scan class and year without section",
			text: "aids batch of 2025",
			want: Registrant{UserClass: "AIDS", UserYear: "2025"},
		},
		{
			name: "fallback section is case sensitive",
			text: "a cyber student",
			want: Registrant{UserClass: "Cyber"},
		},
		{
			name: "year outside vocab ignored",
			text: "IoT A 2027",
			want: Registrant{UserClass: "IoT", UserSection: "A"},
		},
		{
			name: "nothing to find",
			text: "hello there",
			want: Registrant{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Cohort(tt.text))
		})
	}
}

func TestRegistrationComposite(t *testing.T) {
	got := Registration("Register for abc - John Doe, john@nit.ac.in, 9876543210, IoT A 2024")
	assert.Equal(t, Registrant{
		EventName:   "abc",
		UserName:    "John Doe",
		UserEmail:   "john@nit.ac.in",
		UserPhone:   "9876543210",
		UserClass:   "IoT",
		UserSection: "A",
		UserYear:    "2024",
	}, got)
}

func TestRegistrationVariants(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Registrant
	}{
		{
			name: "separator without verb prefix",
			text: "robotics workshop - Jane Roe, jane@nit.ac.in",
			want: Registrant{EventName: "robotics workshop", UserName: "Jane Roe", UserEmail: "jane@nit.ac.in"},
		},
		{
			// Without a separator the whole message doubles as the details
			// segment, so the recovered name is noisy. Callers merge explicit
			// fields over it, which is why this stays acceptable.
			name: "no separator verb inline",
			text: "signup for line follower contest, Email: sam@nit.ac.in",
			want: Registrant{
				EventName: "line follower contest",
				UserName:  "signup for line follower contest Email:",
				UserEmail: "sam@nit.ac.in",
			},
		},
		{
			name: "details only",
			text: "Priya Kumar, priya@nit.ac.in, 9123456780",
			want: Registrant{UserName: "Priya Kumar", UserEmail: "priya@nit.ac.in", UserPhone: "9123456780"},
		},
		{
			name: "phone shorter than ten digits ignored",
			text: "abc - Ken Adams, ken@nit.ac.in, 12345",
			want: Registrant{EventName: "abc", UserName: "Ken Adams", UserEmail: "ken@nit.ac.in"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Registration(tt.text))
		})
	}
}

func TestNameStopIsHardBreak(t *testing.T) {
	got := Registration("John Doe 2024")
	assert.Equal(t, "John Doe", got.UserName)
	assert.Empty(t, got.UserClass)
	assert.Empty(t, got.UserSection)
	assert.Empty(t, got.UserYear)

	// Nothing after the first disqualifying token joins the name, even if
	// later words look name-like.
	got = Registration("Mary B Watson, mary@nit.ac.in")
	assert.Equal(t, "Mary", got.UserName)
}

func TestMergeFirstWriterWins(t *testing.T) {
	r := Registrant{UserName: "Explicit Name", UserEmail: "given@nit.ac.in"}
	r.Merge(Registrant{UserName: "Parsed Name", UserPhone: "9876543210"})
	assert.Equal(t, "Explicit Name", r.UserName)
	assert.Equal(t, "given@nit.ac.in", r.UserEmail)
	assert.Equal(t, "9876543210", r.UserPhone)
}

func TestWidenCohort(t *testing.T) {
	r := Registrant{UserName: "John Doe", EventName: "abc"}
	r.WidenCohort("please sign me up, IoT A 2024, thanks")
	assert.Equal(t, "IoT", r.UserClass)
	assert.Equal(t, "A", r.UserSection)
	assert.Equal(t, "2024", r.UserYear)
}

func TestWidenCohortIdempotent(t *testing.T) {
	r := Registrant{UserClass: "Cyber", UserSection: "B", UserYear: "2023"}
	before := r
	r.WidenCohort("IoT A 2024")
	assert.Equal(t, before, r)

	// Partially filled records only gain the missing fields.
	p := Registrant{UserClass: "Cyber"}
	p.WidenCohort("IoT A 2024")
	assert.Equal(t, "Cyber", p.UserClass)
	assert.Equal(t, "A", p.UserSection)
	assert.Equal(t, "2024", p.UserYear)
}

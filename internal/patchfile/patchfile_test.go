package patchfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const normalPatch = `From 24e8522268ad675996fc3b35209ce23951236bdc Mon Sep 17 00:00:00 2001
From: Dev <dev@example.com>
Date: Tue, 27 May 2025 19:20:42 +0000
Subject: [PATCH] chore: a to abc

Abc patch
---
 src/mod.go            |  1 +
 1files changed, 3 insertions(+), 1 deletions(-)

diff --git a/src/mod.go b/src/mod.go
index 4120f5a..e68783c 100644
--- a/src/mod.go
+++ b/src/mod.go
@@ -103,31 +103,9 @@ func run() {

- a
+ abc
--
2.49.0`

const multilineSubjectPatch = `From 24e8522268ad675996fc3b35209ce23951236bdc Mon Sep 17 00:00:00 2001
From: Dev <dev@example.com>
Date: Tue, 27 May 2025 19:20:42 +0000
Subject: [PATCH] chore: Some long subject yes so long one Some long subject yes
 so long one

Abc patch
---
 src/mod.go            |  1 +
--
2.49.0`

const coverLetterPatch = `From 864f3018f62ab2e1265edb670d5493dafe7d2cb2 Mon Sep 17 00:00:00 2001
From: Dev <dev@example.com>
Date: Tue, 3 Jun 2025 08:41:12 +0000
Subject: [PATCH v2 0/7] feat: Some test just a test

Cover body

Dev (1):
  chore: Update README.md

 README.md      |  2 +-


base-commit: f670859b92d525874fd621452080c8479964ac6a
-- 
2.49.0`

func TestParseNormal(t *testing.T) {
	patch, err := Parse(normalPatch)
	require.NoError(t, err)
	assert.Equal(t, "[PATCH] chore: a to abc", patch.Subject)
	assert.Equal(t, "Abc patch", patch.Body)
	assert.Equal(t, normalPatch, patch.Raw)
}

func TestParseMultilineSubject(t *testing.T) {
	patch, err := Parse(multilineSubjectPatch)
	require.NoError(t, err)
	assert.Equal(t,
		"[PATCH] chore: Some long subject yes so long one Some long subject yes so long one",
		patch.Subject)
	assert.Equal(t, "Abc patch", patch.Body)
}

func TestParseCoverLetter(t *testing.T) {
	patch, err := Parse(coverLetterPatch)
	require.NoError(t, err)
	assert.Equal(t, "[PATCH v2 0/7] feat: Some test just a test", patch.Subject)
	assert.Equal(t, `Cover body

Dev (1):
  chore: Update README.md

 README.md      |  2 +-


base-commit: f670859b92d525874fd621452080c8479964ac6a`, patch.Body)
}

func TestParseSubjectLookalikeInDiff(t *testing.T) {
	content := `From 24e8522268ad675996fc3b35209ce23951236bdc Mon Sep 17 00:00:00 2001
From: Dev <dev@example.com>
Date: Tue, 27 May 2025 19:20:42 +0000
Subject: [PATCH] chore: Subject in subject

A good test patch
---
 src/mod.go            |  1 +

diff --git a/src/mod.go b/src/mod.go

From: Dev <dev@example.com>
Date: Tue, 27 May 2025 19:20:42 +0000
Subject: [PATCH] chore: What a subject

hi
---
--
2.49.0`
	patch, err := Parse(content)
	require.NoError(t, err)
	assert.Equal(t, "[PATCH] chore: Subject in subject", patch.Subject)
	assert.Equal(t, "A good test patch", patch.Body)
}

func TestParseRejectsBadFirstLine(t *testing.T) {
	_, err := Parse("Subject: [PATCH] nope\n\nbody\n")
	assert.Error(t, err)
}

func TestParseRejectsMissingSubject(t *testing.T) {
	_, err := Parse("From 24e8522268ad675996fc3b35209ce23951236bdc Mon Sep 17 00:00:00 2001\n\nbody\n")
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	cases := []struct {
		subject string
		want    string
	}{
		{"[PATCH] chore: a to abc", "0001-chore-a-to-abc.patch"},
		{"[PATCH v2 0/3] feat: Some test just a test", "v2-0000-cover-letter.patch"},
		{"[PATCH 0/3] feat: Some test just a test", "0000-cover-letter.patch"},
		{"[PATCH v2 1/3] feat: Some test just a test", "v2-0001-feat-some-test-just-a-test.patch"},
		{"[PATCH v42 23/30] feat: Some test just a test", "v42-0023-feat-some-test-just-a-test.patch"},
		{"[PATCH 32/50] feat: Some test just a test", "0032-feat-some-test-just-a-test.patch"},
		{
			"[PATCH v100 32/50] feat: some long subject some long subject some long subject some long subject",
			"v100-0032-feat-some-long-subject-some-long-subject-some-long-subject.patch",
		},
	}

	for _, tc := range cases {
		got, err := Patch{Subject: tc.subject}.Filename()
		require.NoError(t, err, tc.subject)
		assert.Equal(t, tc.want, got, tc.subject)
	}
}

func TestFilenameWithoutPatchMarker(t *testing.T) {
	_, err := Patch{Subject: "[RFC v5 1/2] Something"}.Filename()
	assert.Error(t, err)

	_, err = Patch{Subject: "Something"}.Filename()
	assert.Error(t, err)
}

func TestFilenameWithoutNumber(t *testing.T) {
	_, err := Patch{Subject: "[PATCH v5 /2] Something"}.Filename()
	assert.Error(t, err)

	_, err = Patch{Subject: "[PATCH v5 2/] Something"}.Filename()
	assert.Error(t, err)
}

func TestFilenameWithoutVersion(t *testing.T) {
	got, err := Patch{Subject: "[PATCH 1/2] Something"}.Filename()
	require.NoError(t, err)
	assert.Equal(t, "0001-something.patch", got)
}

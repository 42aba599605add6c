package sync

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Patcher применяет текстовый патч к текущему содержимому
type Patcher interface {
	Apply(content, patchText string) (string, []bool, error)
}

// DMPPatcher патчи в формате diff-match-patch (PatchToText).
// Хунк применяется только если его исходный текст найден в содержимом
// дословно; нечеткое совпадение не используется.
type DMPPatcher struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

func NewPatcher() *DMPPatcher {
	return &DMPPatcher{dmp: diffmatchpatch.New()}
}

func (p *DMPPatcher) Apply(content, patchText string) (string, []bool, error) {
	patches, err := p.dmp.PatchFromText(patchText)
	if err != nil {
		return content, nil, fmt.Errorf("%w: %v", ErrPatchUnparsable, err)
	}
	if len(patches) == 0 {
		return content, nil, ErrPatchEmpty
	}

	out := content
	applied := make([]bool, len(patches))
	// delta: сдвиг между позициями в базовой версии и в текущем содержимом
	delta := 0
	for i, patch := range patches {
		from := p.dmp.DiffText1(patch.Diffs)
		to := p.dmp.DiffText2(patch.Diffs)

		loc := nearestIndex(out, from, patch.Start2+delta)
		if loc < 0 {
			delta -= patch.Length2 - patch.Length1
			continue
		}
		out = out[:loc] + to + out[loc+len(from):]
		delta = loc - patch.Start2
		applied[i] = true
	}

	return out, applied, nil
}

// nearestIndex ищет вхождение sub, ближайшее к expected; -1 если нет
func nearestIndex(s, sub string, expected int) int {
	if expected < 0 {
		expected = 0
	}
	if expected > len(s) {
		expected = len(s)
	}
	if sub == "" {
		return expected
	}

	best := -1
	for off := 0; ; {
		i := strings.Index(s[off:], sub)
		if i < 0 {
			break
		}
		pos := off + i
		if best < 0 || abs(pos-expected) < abs(best-expected) {
			best = pos
		}
		if pos > expected {
			break
		}
		off = pos + 1
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// MakePatch строит текст патча из двух версий
func (p *DMPPatcher) MakePatch(from, to string) string {
	return p.dmp.PatchToText(p.dmp.PatchMake(from, to))
}

func allApplied(flags []bool) bool {
	for _, ok := range flags {
		if !ok {
			return false
		}
	}
	return len(flags) > 0
}

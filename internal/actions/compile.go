package actions

import (
	"fmt"

	"github.com/olereon/galleryharvest/internal/models"
)

// program is the result of compiling a flat action-script into the jump
// tables the interpreter's control-flow actions need. Building this once
// up front keeps Run's per-step cost O(1) instead of re-scanning the
// script on every branch.
type program struct {
	jumpFalse  map[int]int // if_begin/elif index -> next elif/else/if_end index
	chainEnd   map[int]int // any if-chain marker index -> its if_end index
	whileEnd   map[int]int // while_begin index -> while_end index
	whileBegin map[int]int // while_end index -> while_begin index
}

type ifFrame struct {
	markers []int // if_begin, elif*, else?, if_end in document order
}

// compile validates nesting and builds the jump tables for if/elif/else
// and while/end blocks. Malformed scripts (unbalanced blocks) are
// reported as configuration errors — they are a config-authoring mistake,
// not a runtime condition.
func compile(script []models.ActionSpec) (*program, error) {
	p := &program{
		jumpFalse:  make(map[int]int),
		chainEnd:   make(map[int]int),
		whileEnd:   make(map[int]int),
		whileBegin: make(map[int]int),
	}

	var ifStack []*ifFrame
	var whileStack []int

	for i, step := range script {
		switch step.Type {
		case "if_begin":
			ifStack = append(ifStack, &ifFrame{markers: []int{i}})
		case "elif", "else":
			if len(ifStack) == 0 {
				return nil, fmt.Errorf("action %d: %q without matching if_begin", i, step.Type)
			}
			top := ifStack[len(ifStack)-1]
			top.markers = append(top.markers, i)
		case "if_end":
			if len(ifStack) == 0 {
				return nil, fmt.Errorf("action %d: if_end without matching if_begin", i)
			}
			top := ifStack[len(ifStack)-1]
			top.markers = append(top.markers, i)
			ifStack = ifStack[:len(ifStack)-1]

			end := i
			for k, marker := range top.markers {
				p.chainEnd[marker] = end
				if k+1 < len(top.markers) {
					p.jumpFalse[marker] = top.markers[k+1]
				}
			}
		case "while_begin":
			whileStack = append(whileStack, i)
		case "while_end":
			if len(whileStack) == 0 {
				return nil, fmt.Errorf("action %d: while_end without matching while_begin", i)
			}
			begin := whileStack[len(whileStack)-1]
			whileStack = whileStack[:len(whileStack)-1]
			p.whileEnd[begin] = i
			p.whileBegin[i] = begin
		}
	}

	if len(ifStack) != 0 {
		return nil, fmt.Errorf("unclosed if_begin block(s): %d still open", len(ifStack))
	}
	if len(whileStack) != 0 {
		return nil, fmt.Errorf("unclosed while_begin block(s): %d still open", len(whileStack))
	}
	return p, nil
}

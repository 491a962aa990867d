package ppu

import (
	"sort"

	"gbcore/internal/ic"
)

// DMG mode timing in T-cycles, per scanline.
const (
	oamScanCycles  = 80
	transferCycles = 172
	hblankCycles   = 204
	lineCycles     = oamScanCycles + transferCycles + hblankCycles // 456
	vblankStartLY  = 144
	lastLY         = 153
)

// Step advances the PPU by cycles T-cycles, running the mode 2/3/0
// state machine across visible lines and mode 1 across VBlank, raising
// LCDStat/VBlank interrupts and composing each scanline in full at the
// moment Mode 3 is entered (not per-dot, per spec.md's Non-goals).
func (p *PPU) Step(cycles uint32) {
	if !lcdOn(p.LCDC) {
		return
	}
	p.modeCycles += cycles
	for {
		switch p.mode {
		case ModeOAMScan:
			if p.modeCycles < oamScanCycles {
				return
			}
			p.modeCycles -= oamScanCycles
			p.enterMode(ModeTransfer)
		case ModeTransfer:
			if p.modeCycles < transferCycles {
				return
			}
			p.modeCycles -= transferCycles
			if !p.frameSkip {
				p.renderLine(int(p.LY))
			}
			p.enterMode(ModeHBlank)
		case ModeHBlank:
			if p.modeCycles < hblankCycles {
				return
			}
			p.modeCycles -= hblankCycles
			p.advanceLine()
		case ModeVBlank:
			if p.modeCycles < lineCycles {
				return
			}
			p.modeCycles -= lineCycles
			p.advanceLine()
		}
	}
}

// enterMode switches STAT's mode bits and raises the LCDStat interrupt
// if the newly entered mode's STAT-select bit is set (mode 3 has none).
func (p *PPU) enterMode(m Mode) {
	p.mode = m
	p.STAT = (p.STAT &^ 0x03) | uint8(m)
	var selectBit uint8
	switch m {
	case ModeHBlank:
		selectBit = 0x08
	case ModeVBlank:
		selectBit = 0x10
	case ModeOAMScan:
		selectBit = 0x20
	}
	if selectBit != 0 && p.STAT&selectBit != 0 {
		p.ic.Request(ic.LCDStat)
	}
}

func (p *PPU) advanceLine() {
	p.LY++
	if int(p.LY) == vblankStartLY {
		p.windowLine = 0
		p.enterMode(ModeVBlank)
		p.ic.Request(ic.VBlank)
		if p.STAT&0x20 != 0 {
			// Hardware quirk: entering VBlank also raises the Mode-2
			// (OAM) STAT interrupt, per spec.md's "if STAT.5 enabled"
			// VBlank-entry clause, on top of enterMode's own Mode-1 check.
			p.ic.Request(ic.LCDStat)
		}
		p.FrameReady = true
	} else if int(p.LY) > lastLY {
		p.LY = 0
		p.windowLine = 0
		p.enterMode(ModeOAMScan)
	} else if p.mode == ModeVBlank {
		// still within VBlank, just count lines
	} else {
		p.enterMode(ModeOAMScan)
	}
	p.updateCoincidence()
}

// renderLine composes one full 160-pixel scanline (background, window,
// sprites) into OutputBuffer[ly], in the teacher's whole-line style
// rather than a per-dot pixel FIFO.
func (p *PPU) renderLine(ly int) {
	var bgIndex [ScreenWidth]uint8 // palette index before OBJ compositing, for OBJ priority

	if p.LCDC&0x01 != 0 {
		p.renderBackground(ly, &bgIndex)
	} else {
		row := ly * ScreenWidth
		for x := 0; x < ScreenWidth; x++ {
			p.OutputBuffer[row+x] = shades[0]
			bgIndex[x] = 0
		}
	}

	windowVisible := p.LCDC&0x20 != 0 && p.LCDC&0x01 != 0 && int(p.WY) <= ly && p.WX <= 166
	if windowVisible {
		p.renderWindow(ly, &bgIndex)
	}

	if p.LCDC&0x02 != 0 {
		p.renderSprites(ly, &bgIndex)
	}
}

func (p *PPU) renderBackground(ly int, bgIndex *[ScreenWidth]uint8) {
	mapBase := 0x1800
	if p.LCDC&0x08 != 0 {
		mapBase = 0x1C00
	}
	unsignedAddressing := p.LCDC&0x10 != 0
	row := ly * ScreenWidth

	y := (int(p.SCY) + ly) & 0xFF
	tileRow := y / 8
	fineY := y % 8

	for x := 0; x < ScreenWidth; x++ {
		wx := (int(p.SCX) + x) & 0xFF
		tileCol := wx / 8
		fineX := wx % 8

		mapIndex := mapBase + tileRow*32 + tileCol
		tileNum := p.VRAM[mapIndex]
		tile := p.tile(tileIndexForAddressing(tileNum, unsignedAddressing))
		idx := tile[fineY][fineX]

		bgIndex[x] = idx
		p.OutputBuffer[row+x] = p.bgPalette[idx]
	}
}

func (p *PPU) renderWindow(ly int, bgIndex *[ScreenWidth]uint8) {
	mapBase := 0x1800
	if p.LCDC&0x40 != 0 {
		mapBase = 0x1C00
	}
	unsignedAddressing := p.LCDC&0x10 != 0
	row := ly * ScreenWidth

	tileRow := p.windowLine / 8
	fineY := p.windowLine % 8

	startX := int(p.WX) - 7
	for x := 0; x < ScreenWidth; x++ {
		if x < startX {
			continue
		}
		wxPixel := x - startX
		tileCol := wxPixel / 8
		fineX := wxPixel % 8

		mapIndex := mapBase + tileRow*32 + tileCol
		tileNum := p.VRAM[mapIndex]
		tile := p.tile(tileIndexForAddressing(tileNum, unsignedAddressing))
		idx := tile[fineY][fineX]

		bgIndex[x] = idx
		p.OutputBuffer[row+x] = p.bgPalette[idx]
	}
	p.windowLine++
}

// spriteEntry is a parsed 4-byte OAM record for one candidate on ly.
type spriteEntry struct {
	y, x     int
	tile     uint8
	flags    uint8
	oamIndex int
}

// renderSprites selects up to 10 sprites intersecting ly (sorted by X
// ascending, OAM index as tiebreak per spec.md invariant), then
// composites them right-to-left so the first-sorted sprite wins
// overlapping pixels.
func (p *PPU) renderSprites(ly int, bgIndex *[ScreenWidth]uint8) {
	tall := p.LCDC&0x04 != 0
	height := 8
	if tall {
		height = 16
	}

	var candidates []spriteEntry
	for i := 0; i < 40; i++ {
		base := i * 4
		spriteY := int(p.OAM[base]) - 16
		if ly < spriteY || ly >= spriteY+height {
			continue
		}
		candidates = append(candidates, spriteEntry{
			y:        spriteY,
			x:        int(p.OAM[base+1]) - 8,
			tile:     p.OAM[base+2],
			flags:    p.OAM[base+3],
			oamIndex: i,
		})
		if len(candidates) == 40 {
			break
		}
	}
	if len(candidates) > 10 {
		candidates = candidates[:10]
	}

	// Render priority: lowest X wins, OAM index breaks ties. Draw in
	// reverse priority order so the highest-priority sprite is painted
	// last and wins overlapping pixels.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].x != candidates[j].x {
			return candidates[i].x < candidates[j].x
		}
		return candidates[i].oamIndex < candidates[j].oamIndex
	})

	for i := len(candidates) - 1; i >= 0; i-- {
		s := candidates[i]
		p.drawSprite(ly, s, height, bgIndex)
	}
}

func (p *PPU) drawSprite(ly int, s spriteEntry, height int, bgIndex *[ScreenWidth]uint8) {
	row := ly - s.y
	if s.flags&spriteYFlip != 0 {
		row = height - 1 - row
	}

	tileIndex := int(s.tile)
	if height == 16 {
		tileIndex &^= 0x01
		if row >= 8 {
			tileIndex |= 0x01
			row -= 8
		}
	}
	tile := p.tile(tileIndex)

	pal := &p.objPalette0
	if s.flags&spritePalette != 0 {
		pal = &p.objPalette1
	}

	outRow := ly * ScreenWidth
	for col := 0; col < 8; col++ {
		screenX := s.x + col
		if screenX < 0 || screenX >= ScreenWidth {
			continue
		}
		srcCol := col
		if s.flags&spriteXFlip != 0 {
			srcCol = 7 - col
		}
		idx := tile[row][srcCol]
		if idx == 0 {
			continue // transparent
		}
		if s.flags&spritePriority != 0 && bgIndex[screenX] != 0 {
			continue // behind non-zero background
		}
		p.OutputBuffer[outRow+screenX] = pal[idx]
	}
}

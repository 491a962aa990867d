package emulator

import (
	"fmt"
	"os"
	"path/filepath"
)

// saveDir is the fixed directory spec.md §6 names for save-state
// files, resolved against the host's home directory.
const saveDir = ".gboyemu/dump"

// StatePath returns the save-state file path for the currently loaded
// cartridge: ~/.gboyemu/dump/<lowercased title>.dump.
func (e *Emulator) StatePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("emulator: resolve home directory: %w", err)
	}
	return filepath.Join(home, saveDir, e.Title()+".dump"), nil
}

// SaveStateToFile writes Snapshot() to the cartridge's fixed save-state
// path. Per spec.md §7, a save failure is non-fatal: the caller may
// keep running and simply report the error.
func (e *Emulator) SaveStateToFile() error {
	path, err := e.StatePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("emulator: create save-state directory: %w", err)
	}
	if err := os.WriteFile(path, e.Snapshot(), 0o644); err != nil {
		return fmt.Errorf("emulator: write save state: %w", err)
	}
	return nil
}

// LoadStateFromFile reads and applies the cartridge's fixed save-state
// path. Restore's transactional validation means a corrupt or
// mismatched file leaves the running emulator untouched.
func (e *Emulator) LoadStateFromFile() error {
	path, err := e.StatePath()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("emulator: read save state: %w", err)
	}
	return e.Restore(data)
}

// BatterySavePath returns the battery-RAM sibling file path next to
// romPath, supplementing spec.md with the persistence original_source's
// rom.c implements (see SPEC_FULL.md §6 / internal/cart.BatteryRAM).
func BatterySavePath(romPath string) string {
	ext := filepath.Ext(romPath)
	return romPath[:len(romPath)-len(ext)] + ".sav"
}

// SaveBattery persists the cartridge's external RAM to its .sav
// sibling file; a no-op for cartridges without battery-backed RAM.
func (e *Emulator) SaveBattery(romPath string) error {
	if !e.Cartridge.HasBattery() {
		return nil
	}
	if err := os.WriteFile(BatterySavePath(romPath), e.Cartridge.BatteryRAM(), 0o644); err != nil {
		return fmt.Errorf("emulator: write battery RAM: %w", err)
	}
	return nil
}

// LoadBattery restores the cartridge's external RAM from its .sav
// sibling file, if one exists; a missing file is not an error.
func (e *Emulator) LoadBattery(romPath string) error {
	if !e.Cartridge.HasBattery() {
		return nil
	}
	data, err := os.ReadFile(BatterySavePath(romPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("emulator: read battery RAM: %w", err)
	}
	e.Cartridge.LoadBatteryRAM(data)
	return nil
}

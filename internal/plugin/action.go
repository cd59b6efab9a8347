package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Method names understood by the host protocol.
const (
	MethodQuery                  = "query"
	MethodReloadLibrary          = "reloadLibrary"
	MethodLaunchGame             = "launchGame"
	MethodSaveSteamDirectory     = "saveSteamDirectory"
	MethodSaveSteamAppsDirectory = "saveSteamAppsDirectory"
)

var (
	// ErrUnknownMethod is returned for a request whose method is not an action.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrBadParameters is returned when an action's parameters are missing or not strings.
	ErrBadParameters = errors.New("bad parameters")
)

// Action is something the host can ask the plugin to do after a result is picked.
// The set of implementations is closed.
type Action interface {
	method() string
	params() []string
}

// ReloadLibrary rebuilds the index from Root.
type ReloadLibrary struct{ Root string }

// LaunchGame starts the game with the given app id.
type LaunchGame struct{ ID string }

// SaveSteamDir stores the Steam client directory.
type SaveSteamDir struct{ Path string }

// SaveSteamAppsDir stores the library (steamapps) directory.
type SaveSteamAppsDir struct{ Path string }

func (a ReloadLibrary) method() string    { return MethodReloadLibrary }
func (a LaunchGame) method() string       { return MethodLaunchGame }
func (a SaveSteamDir) method() string     { return MethodSaveSteamDirectory }
func (a SaveSteamAppsDir) method() string { return MethodSaveSteamAppsDirectory }

func (a ReloadLibrary) params() []string    { return []string{a.Root} }
func (a LaunchGame) params() []string       { return []string{a.ID} }
func (a SaveSteamDir) params() []string     { return []string{a.Path} }
func (a SaveSteamAppsDir) params() []string { return []string{a.Path} }

// DecodeAction maps a request onto its Action.
func DecodeAction(req Request) (Action, error) {
	arg := func() (string, error) {
		if len(req.Parameters) < 1 {
			return "", fmt.Errorf("%s: %w: expected 1 parameter", req.Method, ErrBadParameters)
		}
		var s string
		if err := json.Unmarshal(req.Parameters[0], &s); err != nil {
			// App ids may arrive as JSON numbers from older hosts.
			var n json.Number
			if err2 := json.Unmarshal(req.Parameters[0], &n); err2 != nil {
				return "", fmt.Errorf("%s: %w: %v", req.Method, ErrBadParameters, err)
			}
			s = n.String()
		}
		return s, nil
	}

	switch req.Method {
	case MethodReloadLibrary:
		s, err := arg()
		return ReloadLibrary{Root: s}, err
	case MethodLaunchGame:
		s, err := arg()
		return LaunchGame{ID: s}, err
	case MethodSaveSteamDirectory:
		s, err := arg()
		return SaveSteamDir{Path: s}, err
	case MethodSaveSteamAppsDirectory:
		s, err := arg()
		return SaveSteamAppsDir{Path: s}, err
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, req.Method)
	}
}

package org

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// snapshotAgent is the on-disk shape of one chart/ledger entry.
type snapshotAgent struct {
	ID           int64    `yaml:"id"`
	Name         string   `yaml:"name"`
	Role         string   `yaml:"role"`
	Goals        []string `yaml:"goals"`
	Founder      bool     `yaml:"founder"`
	Terminated   bool     `yaml:"terminated"`
	WorkspaceDir string   `yaml:"workspace_dir"`
	Supervisor   int64    `yaml:"supervisor,omitempty"`
	HasSupervisor bool    `yaml:"has_supervisor"`
	Budget       int64    `yaml:"budget"`
	RunningCost  int64    `yaml:"running_cost"`
	Status       string   `yaml:"status"`
}

// organizationSnapshot is the full <name>_organization.yaml document (§4.2).
type organizationSnapshot struct {
	Name          string          `yaml:"name"`
	Goal          string          `yaml:"goal"`
	InitialBudget int64           `yaml:"initial_budget"`
	UnitCost      int64           `yaml:"unit_cost"`
	NextAgentID   int64           `yaml:"next_agent_id"`
	NextMessageID int64           `yaml:"next_message_id"`
	Agents        []snapshotAgent `yaml:"agents"`
}

// messageArchive is the full <name>_messages.yaml document (§4.2).
type messageArchive struct {
	Messages []Message `yaml:"messages"`
}

// agentConfigFile is the per-agent agents/<id>_<name>_workspace/agent.yaml
// document: the slice of an agent's record that exists independently of
// organization-wide bookkeeping, useful for a human or another tool to
// inspect a single agent's directory without reading the full snapshot.
type agentConfigFile struct {
	ID           int64    `yaml:"id"`
	Name         string   `yaml:"name"`
	Role         string   `yaml:"role"`
	Goals        []string `yaml:"goals"`
	WorkspaceDir string   `yaml:"workspace_dir"`
}

func (o *Organization) orgDir() string {
	return filepath.Join(o.WorkspaceRoot, o.Name)
}

func (o *Organization) snapshotPath() string {
	return filepath.Join(o.orgDir(), o.Name+"_organization.yaml")
}

func (o *Organization) messagesPath() string {
	return filepath.Join(o.orgDir(), o.Name+"_messages.yaml")
}

func (o *Organization) agentConfigPath(id int64, name string) string {
	return filepath.Join(o.orgDir(), "agents", fmt.Sprintf("%d_%s_workspace", id, name), "agent.yaml")
}

// persistLocked writes the organization snapshot, message archive, and
// the config file of every non-terminated agent to disk. The caller must already hold o.mu
// (§4.2: "invoked after every successful mutation event, only after the
// in-memory state has been updated"). Each file is written atomically via
// a temp-file-plus-rename, so a crash mid-save never leaves a half file.
func (o *Organization) persistLocked() error {
	if o.WorkspaceRoot == "" {
		return nil // persistence disabled (e.g. in-memory test organizations)
	}
	if err := os.MkdirAll(o.orgDir(), 0o755); err != nil {
		return fmt.Errorf("persist: create org dir: %w", err)
	}

	snap := o.buildSnapshot()
	if err := writeYAMLAtomic(o.snapshotPath(), snap); err != nil {
		return fmt.Errorf("persist: snapshot: %w", err)
	}

	archive := o.buildMessageArchive()
	if err := writeYAMLAtomic(o.messagesPath(), archive); err != nil {
		return fmt.Errorf("persist: message archive: %w", err)
	}

	for _, a := range snap.Agents {
		if a.Terminated {
			continue
		}
		cfg := agentConfigFile{ID: a.ID, Name: a.Name, Role: a.Role, Goals: a.Goals, WorkspaceDir: a.WorkspaceDir}
		path := o.agentConfigPath(a.ID, a.Name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("persist: agent %d dir: %w", a.ID, err)
		}
		if err := writeYAMLAtomic(path, cfg); err != nil {
			return fmt.Errorf("persist: agent %d config: %w", a.ID, err)
		}
	}
	return nil
}

func (o *Organization) buildSnapshot() organizationSnapshot {
	ids := make([]int64, 0, len(o.chart.agents))
	for id := range o.chart.agents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	agents := make([]snapshotAgent, 0, len(ids))
	for _, id := range ids {
		a := o.chart.agents[id]
		sup, hasSup := o.chart.supervisorOf(id)
		agents = append(agents, snapshotAgent{
			ID:            a.ID,
			Name:          a.Name,
			Role:          a.Role,
			Goals:         a.Goals,
			Founder:       a.Founder,
			Terminated:    a.Terminated,
			WorkspaceDir:  a.WorkspaceDir,
			Supervisor:    sup,
			HasSupervisor: hasSup,
			Budget:        o.ledger.budget[id],
			RunningCost:   o.ledger.runningCost[id],
			Status:        o.ledger.status[id],
		})
	}

	return organizationSnapshot{
		Name:          o.Name,
		Goal:          o.Goal,
		InitialBudget: o.InitialBudget,
		UnitCost:      o.ledger.unitCost,
		NextAgentID:   o.agentIDs.current(),
		NextMessageID: o.messageIDs.current(),
		Agents:        agents,
	}
}

func (o *Organization) buildMessageArchive() messageArchive {
	ids := make([]int64, 0, len(o.messages.byID))
	for id := range o.messages.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	msgs := make([]Message, 0, len(ids))
	for _, id := range ids {
		msgs = append(msgs, *o.messages.byID[id])
	}
	return messageArchive{Messages: msgs}
}

// LoadOrganization reconstructs an Organization from its snapshot and
// message archive under workspaceRoot/name (§3 "loaded from disk by
// load(name)"). Missing files are not an error — a brand-new organization
// simply has none yet; the caller is expected to distinguish "create" from
// "load" at a higher level (see Controller).
func LoadOrganization(workspaceRoot, name string, unitCost int64) (*Organization, error) {
	o := &Organization{
		Name:          name,
		WorkspaceRoot: workspaceRoot,
		chart:         newChart(),
		ledger:        newLedger(unitCost),
		messages:      newMessageCenter(),
	}

	var snap organizationSnapshot
	if err := readYAML(o.snapshotPath(), &snap); err != nil {
		return nil, fmt.Errorf("load: snapshot: %w", err)
	}
	o.Goal = snap.Goal
	o.InitialBudget = snap.InitialBudget
	if snap.UnitCost > 0 {
		o.ledger = newLedger(snap.UnitCost)
	}
	o.agentIDs = newIDCounter(snap.NextAgentID)
	o.messageIDs = newIDCounter(snap.NextMessageID)

	// First pass: register every agent, founders included, before wiring
	// supervisor edges — a supervisor may appear later in the slice than
	// its staff if the snapshot was hand-edited or written by an older
	// writer ordering.
	for _, a := range snap.Agents {
		agent := &Agent{
			ID: a.ID, Name: a.Name, Role: a.Role, Goals: a.Goals,
			Founder: a.Founder, Terminated: a.Terminated, WorkspaceDir: a.WorkspaceDir,
		}
		if a.HasSupervisor {
			o.chart.agents[agent.ID] = agent
		} else {
			o.chart.addFounder(agent)
		}
		o.ledger.budget[a.ID] = a.Budget
		o.ledger.runningCost[a.ID] = a.RunningCost
		o.ledger.status[a.ID] = a.Status
	}
	for _, a := range snap.Agents {
		if !a.HasSupervisor {
			continue
		}
		if _, ok := o.chart.agents[a.Supervisor]; !ok {
			// Stale snapshot referencing a supervisor that no longer
			// exists (§4.2: "a warning, not a fatal error").
			continue
		}
		o.chart.supervisor[a.ID] = a.Supervisor
		o.chart.staffOf[a.Supervisor] = append(o.chart.staffOf[a.Supervisor], a.ID)
	}

	var archive messageArchive
	if err := readYAML(o.messagesPath(), &archive); err != nil {
		return nil, fmt.Errorf("load: message archive: %w", err)
	}
	sort.Slice(archive.Messages, func(i, j int) bool { return archive.Messages[i].ID < archive.Messages[j].ID })
	for i := range archive.Messages {
		m := archive.Messages[i]
		o.messages.byID[m.ID] = &m
	}

	return o, nil
}

func writeYAMLAtomic(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, v)
}

// Package seed loads a small demonstration data set: an organization tree,
// projects spread across the lifecycle, default process templates and a few
// process instances. It writes through the services so every record passes
// the same validation and ledger rules as live traffic.
package seed

import (
	"context"
	"fmt"

	processsvc "github.com/dalemusser/govhub/internal/app/services/processes"
	projectsvc "github.com/dalemusser/govhub/internal/app/services/projects"
	"github.com/dalemusser/govhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Operator is recorded on every seeded ledger row.
const Operator = "seed"

// OrgWriter is satisfied by organizationstore.Store and memstore.Organizations.
type OrgWriter interface {
	Create(ctx context.Context, org models.Organization) (models.Organization, error)
	Count(ctx context.Context) (int64, error)
}

type Deps struct {
	Orgs      OrgWriter
	Projects  *projectsvc.Service
	Processes *processsvc.Service
	Log       *zap.Logger
}

// Summary counts what a run created.
type Summary struct {
	Organizations int
	Projects      int
	Templates     int
	Instances     int
	Skipped       bool
}

type orgSpec struct {
	key, name, code string
	level           models.OrgLevel
	parent          string
}

var orgTree = []orgSpec{
	{"province", "省委组织部", "330000", models.OrgLevelProvince, ""},
	{"city", "市委组织部", "330100", models.OrgLevelCity, "province"},
	{"city-b1", "市直机关第一党支部", "330100001", models.OrgLevelBranch, "city"},
	{"city-b2", "市直机关第二党支部", "330100002", models.OrgLevelBranch, "city"},
	{"county", "西湖区委组织部", "330106", models.OrgLevelCounty, "city"},
	{"county-b1", "北山街道党支部", "330106001", models.OrgLevelBranch, "county"},
	{"county-b2", "灵隐街道党支部", "330106002", models.OrgLevelBranch, "county"},
	{"county-b3", "翠苑社区党支部", "330106003", models.OrgLevelBranch, "county"},
}

// Demo loads the demonstration set. It does nothing when the organization
// directory already has entries.
func Demo(ctx context.Context, d Deps) (Summary, error) {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	var sum Summary

	n, err := d.Orgs.Count(ctx)
	if err != nil {
		return sum, err
	}
	if n > 0 {
		log.Info("seed skipped: organizations already present", zap.Int64("organizations", n))
		sum.Skipped = true
		return sum, nil
	}

	orgs := make(map[string]models.Organization, len(orgTree))
	for _, spec := range orgTree {
		o := models.Organization{Name: spec.name, Code: spec.code, Level: spec.level}
		if spec.parent != "" {
			pid := orgs[spec.parent].ID
			o.ParentID = &pid
		}
		created, err := d.Orgs.Create(ctx, o)
		if err != nil {
			return sum, fmt.Errorf("seed organization %s: %w", spec.code, err)
		}
		orgs[spec.key] = created
		sum.Organizations++
	}

	if err := seedProjects(ctx, d.Projects, orgs, &sum); err != nil {
		return sum, err
	}

	kinds, err := d.Processes.EnsureDefaults(ctx)
	if err != nil {
		return sum, err
	}
	sum.Templates = len(kinds)

	if err := seedInstances(ctx, d.Processes, orgs, &sum); err != nil {
		return sum, err
	}

	log.Info("demo data seeded",
		zap.Int("organizations", sum.Organizations),
		zap.Int("projects", sum.Projects),
		zap.Int("templates", sum.Templates),
		zap.Int("instances", sum.Instances))
	return sum, nil
}

type projectSpec struct {
	title    string
	category string
	org      string
	// reviewer actions applied after creation, in order
	actions []models.ReviewAction
	// approve at every remaining tier until the project is approved
	approveAll bool
	// run continues past approval: start, report, conclusion, selection
	run func(ctx context.Context, svc *projectsvc.Service, id primitive.ObjectID) error
}

var (
	submit  = models.ActionSubmit
	approve = models.ActionApprove
	reject  = models.ActionReject
)

var projectSpecs = []projectSpec{
	{title: "支部标准化规范化建设", category: "组织建设类", org: "city-b1"},
	{title: "党员积分制管理", category: "党员教育类", org: "county-b1", actions: []models.ReviewAction{submit}},
	{title: "红色物业进小区", category: "服务群众类", org: "county-b2", actions: []models.ReviewAction{submit, approve}},
	{title: "机关党建与业务融合", category: "融合发展类", org: "city-b2", actions: []models.ReviewAction{submit, reject}},
	{title: "社区党群服务中心提质", category: "服务群众类", org: "county-b3",
		actions: []models.ReviewAction{submit}, approveAll: true,
		run: runInProgress},
	{title: "“党建+网格”基层治理", category: "组织建设类", org: "city-b1",
		actions: []models.ReviewAction{submit}, approveAll: true,
		run: runToTypicalCase},
}

var actor = projectsvc.Actor{Operator: Operator}

func seedProjects(ctx context.Context, svc *projectsvc.Service, orgs map[string]models.Organization, sum *Summary) error {
	for _, spec := range projectSpecs {
		p, err := svc.Create(ctx, projectsvc.Draft{
			Title:          spec.title,
			BatchID:        "2026-01",
			BatchName:      "2026年第一批",
			Category:       spec.category,
			Summary:        spec.title + "项目申报材料",
			OrganizationID: orgs[spec.org].ID.Hex(),
			Leader:         "项目负责人",
			Members:        []string{"成员甲", "成员乙"},
		}, false, actor)
		if err != nil {
			return fmt.Errorf("seed project %q: %w", spec.title, err)
		}
		for _, a := range spec.actions {
			if _, _, err := svc.Transition(ctx, p.ID, projectsvc.TransitionRequest{Action: a, Comment: "演示数据"}, actor); err != nil {
				return fmt.Errorf("seed project %q %s: %w", spec.title, a, err)
			}
		}
		if spec.approveAll {
			if err := approveThrough(ctx, svc, p.ID); err != nil {
				return fmt.Errorf("seed project %q: %w", spec.title, err)
			}
		}
		if spec.run != nil {
			if err := spec.run(ctx, svc, p.ID); err != nil {
				return fmt.Errorf("seed project %q: %w", spec.title, err)
			}
		}
		sum.Projects++
	}
	return nil
}

// approveThrough approves at each pending tier. The number of tiers depends
// on the entry tier and the configured top review tier.
func approveThrough(ctx context.Context, svc *projectsvc.Service, id primitive.ObjectID) error {
	for i := 0; i < 3; i++ {
		p, _, err := svc.Transition(ctx, id, projectsvc.TransitionRequest{Action: approve, Comment: "同意"}, actor)
		if err != nil {
			return err
		}
		if p.Status == models.StatusApproved {
			return nil
		}
	}
	return fmt.Errorf("project %s not approved after three reviews", id.Hex())
}

func runInProgress(ctx context.Context, svc *projectsvc.Service, id primitive.ObjectID) error {
	if _, err := svc.Start(ctx, id, actor); err != nil {
		return err
	}
	_, rep, err := svc.AddReport(ctx, id, projectsvc.ReportInput{
		Stage:   "第一阶段",
		Title:   "阶段进展",
		Content: "完成服务中心场地改造。",
	})
	if err != nil {
		return err
	}
	_, err = svc.SubmitReport(ctx, id, rep.ID)
	return err
}

func runToTypicalCase(ctx context.Context, svc *projectsvc.Service, id primitive.ObjectID) error {
	steps := []func() (models.Project, error){
		func() (models.Project, error) { return svc.Start(ctx, id, actor) },
		func() (models.Project, error) {
			return svc.FileConclusion(ctx, id, projectsvc.ConclusionInput{Summary: "项目已按计划完成。"}, actor)
		},
		func() (models.Project, error) { return svc.ApproveConclusion(ctx, id, "同意结项", actor) },
		func() (models.Project, error) { return svc.StartCitySelection(ctx, id, actor) },
		func() (models.Project, error) { return svc.RecordCityResult(ctx, id, string(models.CityFirst), actor) },
		func() (models.Project, error) { return svc.RecommendToProvince(ctx, id, actor) },
		func() (models.Project, error) {
			return svc.RecordProvinceResult(ctx, id, string(models.ProvinceIncluded), actor)
		},
		func() (models.Project, error) { return svc.Publish(ctx, id, projectsvc.PublishAsCase, actor) },
	}
	for _, step := range steps {
		if _, err := step(); err != nil {
			return err
		}
	}
	return nil
}

func seedInstances(ctx context.Context, svc *processsvc.Service, orgs map[string]models.Organization, sum *Summary) error {
	// completed node counts per branch election
	elections := []struct {
		org  string
		done int
	}{
		{"city-b1", 0},
		{"county-b1", 3},
		{"county-b2", 7},
	}
	for _, e := range elections {
		o := orgs[e.org]
		v, err := svc.Start(ctx, models.ProcessElection, models.Subject{
			Ref:      o.ID.Hex(),
			Name:     o.Name,
			Metadata: map[string]string{"code": o.Code},
		})
		if err != nil {
			return fmt.Errorf("seed election %s: %w", o.Code, err)
		}
		if err := completeFirst(ctx, svc, v, e.done); err != nil {
			return err
		}
		sum.Instances++
	}

	for i, name := range []string{"王小明", "李华"} {
		v, err := svc.Start(ctx, models.ProcessAdmission, models.Subject{
			Ref:      fmt.Sprintf("applicant-%d", i+1),
			Name:     name,
			Metadata: map[string]string{"branch": orgs["county-b3"].Name},
		})
		if err != nil {
			return fmt.Errorf("seed admission %s: %w", name, err)
		}
		if err := completeFirst(ctx, svc, v, 2*i+1); err != nil {
			return err
		}
		sum.Instances++
	}
	return nil
}

// completeFirst toggles the first n nodes of an instance in template order.
func completeFirst(ctx context.Context, svc *processsvc.Service, v processsvc.View, n int) error {
	for _, st := range v.Stages {
		for _, node := range st.Nodes {
			if n == 0 {
				return nil
			}
			if _, err := svc.Toggle(ctx, v.Kind, v.ID, st.ID, node.ID); err != nil {
				return fmt.Errorf("seed toggle %s/%s: %w", st.ID, node.ID, err)
			}
			n--
		}
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"log"

	"github.com/denizgursoy/tursu/pkg/events"
	"github.com/denizgursoy/tursu/pkg/gherkin"
	"github.com/denizgursoy/tursu/pkg/runner"
	"github.com/denizgursoy/tursu/pkg/steps"
)

const source = `Feature: Parcel pricing

  Background:
    Given an empty parcel

  Scenario: letters go at the flat rate
    When I pack 2 letters
    Then the postage is 1.20 euros

  Scenario: express shipping doubles the rate
    When I pack 2 letters
    And I ship it express
    Then the postage is 2.40 euros

  Scenario Outline: boxes are priced per piece
    When I pack <count> boxes
    Then the postage is <price> euros

    Examples:
      | count | price |
      | 1     | 4.50  |
      | 3     | 13.50 |
`

type parcel struct {
	items   int
	postage float64
}

func main() {
	reg := steps.NewRegistry()
	must(reg.Given(steps.Exact("an empty parcel"), func() *parcel {
		return &parcel{}
	}, steps.WithTargetFixture("parcel")))
	must(reg.When(steps.Format("I pack {count:int} letters"), func(count int, p *parcel) {
		p.items += count
		p.postage += 0.60 * float64(count)
	}, steps.WithFixtures("parcel")))
	must(reg.When(steps.Format("I pack {count:int} boxes"), func(count int, p *parcel) {
		p.items += count
		p.postage += 4.50 * float64(count)
	}, steps.WithFixtures("parcel")))
	must(reg.When(steps.Format("I ship it {speed:word}"), func(factor float64, p *parcel) {
		p.postage *= factor
	}, steps.WithFixtures("parcel"), steps.WithConverter("speed", shippingFactor)))
	must(reg.Then(steps.Format("the postage is {price:float} euros"), func(price float64, p *parcel) error {
		if p.postage != price {
			return fmt.Errorf("postage is %.2f, want %.2f", p.postage, price)
		}
		return nil
	}, steps.WithFixtures("parcel")))

	doc, err := gherkin.Parse([]byte(source), gherkin.WithURI("pricing.feature"))
	if err != nil {
		log.Fatal(err)
	}

	r := runner.New().
		WithDocuments(doc).
		WithRegistry(reg.Seal()).
		WithSink(events.NewSlogSink(nil))

	plan, _, err := r.Plan()
	if err != nil {
		log.Fatal(err)
	}
	if err := r.RunUnits(context.Background(), plan.Units); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("ran %d scenarios\n", len(plan.Units))
}

func shippingFactor(raw string) (any, error) {
	switch raw {
	case "express":
		return 2.0, nil
	case "standard":
		return 1.0, nil
	default:
		return nil, fmt.Errorf("unknown shipping speed %q", raw)
	}
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

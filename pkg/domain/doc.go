/*
Package domain contains the core domain models for the ruleflow engine.

It defines the authored automation flow (Nodes, Branches, Actions), the
Condition rules that guard branches, and the results produced when a Fact is
routed through a flow or a flow is preflighted. This package is kept pure and
free of I/O or persistence concerns.

# Key Entities

  - Fact: A flat key/value snapshot of one simulated event.
  - Condition: A single field/operator/value comparison.
  - Branch: A labelled Condition plus the Actions to run when it matches.
  - Flow: The ordered Nodes and the Branch group authored by a user.
  - RouteResult / Report: What the router and the preflight checker return.
*/
package domain
